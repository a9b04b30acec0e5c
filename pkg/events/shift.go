package events

// Shift returns a copy of the stream with every timestamp and GTI
// boundary translated by delta seconds. The reference epoch is
// unchanged, so the events move in absolute time.
func (ev *EventList) Shift(delta float64) *EventList {
	out := ev.Copy()
	for i := range out.Time {
		out.Time[i] += delta
	}
	out.GTI = out.GTI.Shift(delta)
	return out
}

// ChangeMJDRef returns a copy of the stream expressed against a new
// reference epoch, given in MJD. Timestamps and GTIs are shifted by the
// epoch difference so every event keeps its absolute time.
func (ev *EventList) ChangeMJDRef(mjdref float64) *EventList {
	out := ev.Shift((ev.MJDRef - mjdref) * secondsPerDay)
	out.MJDRef = mjdref
	return out
}
