// rooms.go
// 核心职责：房间注册表
// 房间是 roomId 到连接集合的映射，加入/退出/广播都在读写锁内完成
package chat

import (
	"sync"
)

// RoomRegistry 进程内房间注册表
// 同一用户的多条连接都会出现在同一房间里，广播对它们一视同仁
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[*UserConn]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]map[*UserConn]struct{}),
	}
}

// Join 将连接加入指定房间
func (r *RoomRegistry) Join(roomId string, conn *UserConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomId]
	if !ok {
		members = make(map[*UserConn]struct{})
		r.rooms[roomId] = members
	}
	members[conn] = struct{}{}
}

// Leave 将连接从它加入过的全部房间里移除，空房间顺手删掉
func (r *RoomRegistry) Leave(conn *UserConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, roomId := range conn.Session.Rooms {
		members, ok := r.rooms[roomId]
		if !ok {
			continue
		}
		delete(members, conn)
		if len(members) == 0 {
			delete(r.rooms, roomId)
		}
	}
}

// Broadcast 向房间内所有连接投递一帧已编码好的数据
// 先在读锁内拷贝成员快照，出锁后再逐个入队，避免持锁期间被慢连接拖住
func (r *RoomRegistry) Broadcast(roomId string, payload []byte) {
	r.mu.RLock()
	members := make([]*UserConn, 0, len(r.rooms[roomId]))
	for conn := range r.rooms[roomId] {
		members = append(members, conn)
	}
	r.mu.RUnlock()
	for _, conn := range members {
		conn.enqueue(payload)
	}
}

// MemberCount 房间当前连接数
func (r *RoomRegistry) MemberCount(roomId string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomId])
}
