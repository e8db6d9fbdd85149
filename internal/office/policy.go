package office

import "github.com/remotehq/office/internal/domain"

// OccupancySortPolicy ranks rooms by how many participants they
// currently hold. Ties keep the feed order, so an idle office lists
// rooms exactly as configured.
func OccupancySortPolicy(occupants func(domain.RoomID) int) SortPolicy {
	return func(room domain.Room) float64 {
		return float64(occupants(room.ID))
	}
}
