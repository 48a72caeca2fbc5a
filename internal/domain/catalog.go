package domain

// CatalogSnapshot is an immutable, point-in-time view of referential
// catalog data, captured once per batch and never refreshed mid-batch.
type CatalogSnapshot struct {
	ActiveClients        map[string]struct{}
	Zones                map[string]bool // value = refrigeration-capable
	ExistingOrderNumbers map[string]struct{}
}

func NewCatalogSnapshot(activeClients []string, zones map[string]bool, existingOrderNumbers []string) *CatalogSnapshot {
	snap := &CatalogSnapshot{
		ActiveClients:        make(map[string]struct{}, len(activeClients)),
		Zones:                make(map[string]bool, len(zones)),
		ExistingOrderNumbers: make(map[string]struct{}, len(existingOrderNumbers)),
	}
	for _, c := range activeClients {
		snap.ActiveClients[c] = struct{}{}
	}
	for z, refrigerated := range zones {
		snap.Zones[z] = refrigerated
	}
	for _, n := range existingOrderNumbers {
		snap.ExistingOrderNumbers[n] = struct{}{}
	}
	return snap
}

func (s *CatalogSnapshot) IsActiveClient(clientID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ActiveClients[clientID]
	return ok
}

func (s *CatalogSnapshot) ZoneRefrigerationCapable(zoneID string) (capable bool, exists bool) {
	if s == nil {
		return false, false
	}
	capable, exists = s.Zones[zoneID]
	return capable, exists
}

// SeenOrderNumbers returns a mutable copy of the existing order numbers,
// used by the validator to track intra-batch duplicates without mutating
// the snapshot itself.
func (s *CatalogSnapshot) SeenOrderNumbers() map[string]struct{} {
	seen := make(map[string]struct{}, len(s.ExistingOrderNumbers))
	for n := range s.ExistingOrderNumbers {
		seen[n] = struct{}{}
	}
	return seen
}
