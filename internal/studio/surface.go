package studio

// Surface is a single playback element that plays one resource at a time.
// Positions and durations are in seconds; Duration returns 0 while the
// natural duration is unknown.
type Surface interface {
	Load(res Resource) error
	Seek(position float64)
	Play() error
	Pause()
	Position() float64
	Duration() float64
	Ended() bool
}
