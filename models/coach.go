package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CoachSessionID 后端可能返回数字或字符串，统一按字符串保存
type CoachSessionID string

func (id *CoachSessionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = CoachSessionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("coach session id: %w", err)
	}
	*id = CoachSessionID(n.String())
	return nil
}

// CoachRole 对话消息的发送方
type CoachRole string

const (
	CoachRoleUser      CoachRole = "user"
	CoachRoleAssistant CoachRole = "assistant"
)

type CoachMessage struct {
	ID        CoachSessionID `json:"id"`
	Role      CoachRole      `json:"role"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
}

// CoachSession 一次教练对话，列表按最近在前返回
type CoachSession struct {
	ID        CoachSessionID `json:"id"`
	Title     string         `json:"title"`
	Timestamp string         `json:"timestamp"`
	Messages  []CoachMessage `json:"messages"`
}

type CoachSessionCreate struct {
	Title string `json:"title"`
}

// CoachChatRequest 发送一条消息，回复只返回文本
type CoachChatRequest struct {
	SessionID CoachSessionID `json:"session_id"`
	Message   string         `json:"message"`
}

type CoachReply struct {
	Response string `json:"response"`
}
