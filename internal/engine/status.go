package engine

// BeltStatus is the render view of a belt.
type BeltStatus struct {
	ID        string `json:"id"`
	Occupancy int    `json:"occupancy"`
	Capacity  int    `json:"capacity"`
	// Slots marks occupied positions, intake first. A slot is derived from
	// the item's release time minus the current tick. Nil above MaxSlotView.
	Slots    []bool `json:"slots,omitempty"`
	Ready    bool   `json:"ready"`
	Accepted uint64 `json:"accepted"`
	Supplied uint64 `json:"supplied"`
	Refused  uint64 `json:"refused"`
}

// SourceStatus is the display view of a source.
type SourceStatus struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Rate          string `json:"rate"`
	LastProduced  int    `json:"last_produced"`
	TotalProduced int64  `json:"total_produced"`
	Pending       int    `json:"pending"`
}

// BuildingStatus is the idle/working view of a building.
type BuildingStatus struct {
	ID      string   `json:"id"`
	Busy    bool     `json:"busy"`
	Held    int      `json:"held"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// SinkStatus is the counter view of a sink.
type SinkStatus struct {
	ID        string         `json:"id"`
	Delivered int            `json:"delivered"`
	Kinds     map[string]int `json:"kinds,omitempty"`
}

// Snapshot is a consistent view of the whole simulation at one tick.
type Snapshot struct {
	Tick      int64            `json:"tick"`
	Running   bool             `json:"running"`
	Sources   []SourceStatus   `json:"sources"`
	Belts     []BeltStatus     `json:"belts"`
	Buildings []BuildingStatus `json:"buildings"`
	Sinks     []SinkStatus     `json:"sinks"`
}

// Belt returns the status of belt id, if present.
func (s Snapshot) Belt(id string) (BeltStatus, bool) {
	for _, b := range s.Belts {
		if b.ID == id {
			return b, true
		}
	}
	return BeltStatus{}, false
}

// Source returns the status of source id, if present.
func (s Snapshot) Source(id string) (SourceStatus, bool) {
	for _, src := range s.Sources {
		if src.ID == id {
			return src, true
		}
	}
	return SourceStatus{}, false
}

// Building returns the status of building id, if present.
func (s Snapshot) Building(id string) (BuildingStatus, bool) {
	for _, b := range s.Buildings {
		if b.ID == id {
			return b, true
		}
	}
	return BuildingStatus{}, false
}

// Sink returns the status of sink id, if present.
func (s Snapshot) Sink(id string) (SinkStatus, bool) {
	for _, sk := range s.Sinks {
		if sk.ID == id {
			return sk, true
		}
	}
	return SinkStatus{}, false
}
