package reservation

// CheckCapacity rejects a passenger count above the vehicle capacity.
// Capacity is inclusive.
func CheckCapacity(requested, capacity int) error {
	if requested > capacity {
		return &CapacityError{Requested: requested, Capacity: capacity}
	}
	return nil
}
