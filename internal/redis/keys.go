package redisx

import "fmt"

const ns = "cinereserve:v1"

func KeyShowtimeAvailability(showtimeID int64) string {
	return fmt.Sprintf("%s:showtime:%d:availability", ns, showtimeID)
}

func KeyShowtimeSeatMap(showtimeID int64) string {
	return fmt.Sprintf("%s:showtime:%d:seatmap", ns, showtimeID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelShowtimesChanged() string {
	return ns + ":showtimes:changed"
}
