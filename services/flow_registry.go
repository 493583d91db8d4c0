package services

import (
	"sync"
	"time"
)

// FlowRegistry 伴生 API 中进行中的引导流程
type FlowRegistry struct {
	backend OnboardingBackend

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewFlowRegistry(backend OnboardingBackend) *FlowRegistry {
	return &FlowRegistry{backend: backend, flows: map[string]*Flow{}}
}

// Start 总是创建新流程，不恢复之前放弃的流程
func (r *FlowRegistry) Start(opts ...FlowOption) *Flow {
	f := NewFlow(r.backend, opts...)
	r.mu.Lock()
	r.flows[f.ID()] = f
	r.mu.Unlock()
	return f
}

func (r *FlowRegistry) Get(id string) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[id]
	return f, ok
}

// Abandon 移除流程，进行中的请求结果会被忽略
func (r *FlowRegistry) Abandon(id string) bool {
	r.mu.Lock()
	f, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()
	if ok {
		f.Abandon()
	}
	return ok
}

// AbandonAll 登出时调用
func (r *FlowRegistry) AbandonAll() {
	r.mu.Lock()
	flows := r.flows
	r.flows = map[string]*Flow{}
	r.mu.Unlock()
	for _, f := range flows {
		f.Abandon()
	}
}

// Prune 放弃启动时间早于 cutoff 的流程，返回数量
func (r *FlowRegistry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	var stale []*Flow
	for id, f := range r.flows {
		if f.startedAt.Before(cutoff) {
			stale = append(stale, f)
			delete(r.flows, id)
		}
	}
	r.mu.Unlock()
	for _, f := range stale {
		f.Abandon()
	}
	return len(stale)
}

func (r *FlowRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
