package events

// EnergySampler draws event energies from a spectral model.
type EnergySampler interface {
	SampleEnergies(n int) ([]float64, error)
}

// SimulateEnergies fills the energy column with one draw per event. A
// stream with no events and no template count has nothing to fill; that
// is a notice, not an error, and the stream is left untouched.
func (ev *EventList) SimulateEnergies(sampler EnergySampler) (Notices, error) {
	var notices Notices
	n := ev.Count()
	if n == 0 {
		notices.Addf(NoticeNoCounts, "stream has neither timestamps nor a template count, no energies to simulate")
		return notices, nil
	}
	draws, err := sampler.SampleEnergies(n)
	if err != nil {
		return notices, err
	}
	ev.SetEnergy(draws)
	return notices, nil
}
