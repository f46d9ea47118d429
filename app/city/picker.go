package city

import (
	"fmt"
	"math/rand"
)

// Picker selects one city that has not been posted yet. Both strategies
// give every eligible row the same probability of being chosen.
type Picker struct {
	dataset *Dataset
	posted  *PostedStore
}

func NewPicker(dataset *Dataset, posted *PostedStore) *Picker {
	return &Picker{
		dataset: dataset,
		posted:  posted,
	}
}

// PickBulk loads the entire dataset, drops rows already posted and
// uniformly samples one of the rest. When every row has been posted it
// samples the full dataset instead: repetition beats stalling.
func (p *Picker) PickBulk() (City, error) {
	cities, err := p.dataset.LoadAll()
	if err != nil {
		return City{}, err
	}
	if len(cities) == 0 {
		return City{}, fmt.Errorf("dataset is empty")
	}

	posted, err := p.posted.Load()
	if err != nil {
		return City{}, err
	}

	eligible := make([]City, 0, len(cities))
	for _, c := range cities {
		if _, ok := posted[c.Key()]; !ok {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		eligible = cities
	}

	return eligible[rand.Intn(len(eligible))], nil
}

// PickReservoir streams the dataset once, skipping posted rows and keeping
// a single reservoir slot: the i-th eligible row replaces the held
// candidate with probability 1/i, so after n eligible rows each has
// probability 1/n of being the final choice. Falls back to PickBulk when
// no eligible row was seen.
func (p *Picker) PickReservoir() (City, error) {
	posted, err := p.posted.Load()
	if err != nil {
		return City{}, err
	}

	var chosen City
	found := false
	count := 0

	err = p.dataset.Stream(func(c City) error {
		if _, ok := posted[c.Key()]; ok {
			return nil
		}
		count++
		if rand.Intn(count) == 0 {
			chosen = c
			found = true
		}
		return nil
	})
	if err != nil {
		return City{}, err
	}

	if !found {
		return p.PickBulk()
	}

	return chosen, nil
}
