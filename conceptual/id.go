package conceptual

// EntityID identifies one moving entity (person, vehicle, animal)
// across all of its trajectories.
type EntityID string

func (e EntityID) String() string {
	return string(e)
}

func (e EntityID) Empty() bool {
	return e == ""
}
