package bot

import "sync"

// MenuSessions 每个管理员当前有效的菜单消息 ID
type MenuSessions struct {
	mu    sync.Mutex
	menus map[int64]int
}

// NewMenuSessions 创建会话表
func NewMenuSessions() *MenuSessions {
	return &MenuSessions{menus: make(map[int64]int)}
}

// Take 取出并移除用户的菜单消息 ID
func (s *MenuSessions) Take(userID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.menus[userID]
	if ok {
		delete(s.menus, userID)
	}
	return id, ok
}

// Put 记录用户新的菜单消息 ID
func (s *MenuSessions) Put(userID int64, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus[userID] = messageID
}

// Len 当前会话数
func (s *MenuSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.menus)
}
