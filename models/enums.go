package models

import "fmt"

// Category 任务类别，封闭枚举
type Category string

const (
	CategoryResearch   Category = "research"
	CategoryCoding     Category = "coding"
	CategoryAdmin      Category = "admin"
	CategoryNetworking Category = "networking"
)

// Categories 按展示顺序列出所有类别
var Categories = []Category{CategoryResearch, CategoryCoding, CategoryAdmin, CategoryNetworking}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	switch c {
	case CategoryResearch, CategoryCoding, CategoryAdmin, CategoryNetworking:
		return c, nil
	}
	return "", fmt.Errorf("unknown task category %q", s)
}

// UnmarshalText 空字符串视为未提供，其它未知值报错
func (c *Category) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = ""
		return nil
	}
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Artifact 任务产出物
type Artifact string

const (
	ArtifactArticle Artifact = "article"
	ArtifactNotes   Artifact = "notes"
	ArtifactCode    Artifact = "code"
)

func ParseArtifact(s string) (Artifact, error) {
	a := Artifact(s)
	switch a {
	case ArtifactArticle, ArtifactNotes, ArtifactCode:
		return a, nil
	}
	return "", fmt.Errorf("unknown artifact %q", s)
}

func (a *Artifact) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*a = ""
		return nil
	}
	parsed, err := ParseArtifact(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// EnergyLevel 建议任务所需精力
type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

func ParseEnergyLevel(s string) (EnergyLevel, error) {
	e := EnergyLevel(s)
	switch e {
	case EnergyHigh, EnergyMedium, EnergyLow:
		return e, nil
	}
	return "", fmt.Errorf("unknown energy level %q", s)
}

func (e *EnergyLevel) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*e = ""
		return nil
	}
	parsed, err := ParseEnergyLevel(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// DoneOnTime 复盘中的按时完成标记
type DoneOnTime string

const (
	DoneOnTimeYes DoneOnTime = "yes"
	DoneOnTimeNo  DoneOnTime = "no"
)

func (d *DoneOnTime) UnmarshalText(b []byte) error {
	switch v := DoneOnTime(b); v {
	case DoneOnTimeYes, DoneOnTimeNo, "":
		*d = v
		return nil
	}
	return fmt.Errorf("invalid done_on_time %q", string(b))
}
