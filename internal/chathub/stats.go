package chathub

import "time"

// Stats contains summary information about the hub.
type Stats struct {
	Uptime             time.Duration `json:"uptime"`
	NumUsers           int           `json:"num_users"`
	NumConnections     int           `json:"num_connections"`
	MaxConnections     int           `json:"max_connections"`
	MaxConnectionsTime time.Time     `json:"max_connections_at"`
	NumRooms           int           `json:"num_rooms"`
	MaxRooms           int           `json:"max_rooms"`
	MaxRoomsTime       time.Time     `json:"max_rooms_at"`
}

// Stats gets stats for this hub.
func (m *ManagerService) Stats() Stats {
	st := Stats{NumUsers: m.Registry.NumUsers()}

	m.Registry.statsLock.Lock()
	st.Uptime = time.Since(m.Registry.createdTime)
	st.NumConnections = m.Registry.conns
	st.MaxConnections = m.Registry.maxConns
	st.MaxConnectionsTime = m.Registry.maxConnsTime
	m.Registry.statsLock.Unlock()

	m.Rooms.statsLock.Lock()
	st.NumRooms = m.Rooms.numRooms
	st.MaxRooms = m.Rooms.maxRooms
	st.MaxRoomsTime = m.Rooms.maxRoomsTime
	m.Rooms.statsLock.Unlock()

	return st
}
