package draft

import "fmt"

// PoolConfig sizes a pool allocation run.
type PoolConfig struct {
	SlotCount    int
	CardsPerSlot int
	CommonRatio  float64
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.SlotCount <= 0 {
		c.SlotCount = DefaultSlotCount
	}
	if c.CardsPerSlot <= 0 {
		c.CardsPerSlot = DefaultCardsPerSlot
	}
	if c.CommonRatio <= 0 || c.CommonRatio > 1 {
		c.CommonRatio = DefaultCommonRatio
	}
	return c
}

// Allocation is the outcome of one pool generation run.
type Allocation struct {
	Pool [][]CardID
	// ShortSlots lists slot indices that could not be filled to
	// CardsPerSlot. Degraded but usable.
	ShortSlots []int
}

// BuildPool generates one player's candidate pool from the catalog,
// excluding every card the opponent has already claimed. Slots at
// multiples of EpicSlotInterval lead with an epic when one is available.
// A global used-set keeps any card from appearing in two slots.
func BuildPool(cat Catalog, excluded map[CardID]bool, cfg PoolConfig) (Allocation, error) {
	cfg = cfg.withDefaults()

	avail := cat.Exclude(excluded)
	if avail.Size() == 0 {
		return Allocation{}, fmt.Errorf("no cards left after exclusion: %w", ErrAllocationExhausted)
	}
	if avail.Size() < cfg.SlotCount {
		return Allocation{}, fmt.Errorf("%d cards for %d slots: %w", avail.Size(), cfg.SlotCount, ErrAllocationExhausted)
	}

	total := cfg.SlotCount * cfg.CardsPerSlot
	commons, epics := WeightedSample(avail.Common, avail.Epic, total, cfg.CommonRatio)

	used := make(map[CardID]bool)
	takeCommon := queue(commons, used)
	takeEpic := queue(epics, used)

	alloc := Allocation{Pool: make([][]CardID, cfg.SlotCount)}
	for i := 0; i < cfg.SlotCount; i++ {
		slot := make([]CardID, 0, cfg.CardsPerSlot)

		if i%EpicSlotInterval == 0 {
			if id, ok := takeEpic(); ok {
				slot = append(slot, id)
			}
		}
		for len(slot) < cfg.CardsPerSlot {
			id, ok := takeCommon()
			if !ok {
				id, ok = takeEpic()
			}
			if !ok {
				break
			}
			slot = append(slot, id)
		}

		if len(slot) == 0 {
			return Allocation{}, fmt.Errorf("slot %d empty: %w", i, ErrAllocationExhausted)
		}
		if len(slot) < cfg.CardsPerSlot {
			alloc.ShortSlots = append(alloc.ShortSlots, i)
		}
		alloc.Pool[i] = slot
	}

	if dups := InternalDuplicates(alloc.Pool); len(dups) > 0 {
		return Allocation{}, fmt.Errorf("allocator produced internal duplicates %v", dups)
	}
	return alloc, nil
}

// queue returns a draw function over ids that skips anything already in
// the shared used-set and records what it hands out.
func queue(ids []CardID, used map[CardID]bool) func() (CardID, bool) {
	i := 0
	return func() (CardID, bool) {
		for i < len(ids) {
			id := ids[i]
			i++
			norm := NormalizeCardID(id)
			if used[norm] {
				continue
			}
			used[norm] = true
			return id, true
		}
		return "", false
	}
}

// InternalDuplicates returns normalized ids that appear in more than one
// position of the pool.
func InternalDuplicates(pool [][]CardID) []CardID {
	seen := make(map[CardID]bool)
	var dups []CardID
	for _, id := range FlattenPool(pool) {
		norm := NormalizeCardID(id)
		if seen[norm] {
			dups = append(dups, norm)
			continue
		}
		seen[norm] = true
	}
	return dups
}
