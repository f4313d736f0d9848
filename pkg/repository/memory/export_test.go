package memory

// RefreshMarks returns the number of stored refresh marks
func (r *Memory) RefreshMarks() int {
	r.refresh.mu.Lock()
	defer r.refresh.mu.Unlock()
	return len(r.refresh.last)
}
