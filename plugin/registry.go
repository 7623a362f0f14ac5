package plugin

import "fmt"

// Stores is a global map of ChartStore plugins.
// The factory receives the on-disk path and the batch size.
var Stores = map[string]func(path string, batch int) (ChartStore, error){
	"badger": func(path string, batch int) (ChartStore, error) {
		bs, err := NewBadgerStore(path, batch)
		if err != nil {
			return nil, err
		}
		return bs, nil
	},
	"memory": func(_ string, batch int) (ChartStore, error) {
		bs, err := NewMemoryStore(batch)
		if err != nil {
			return nil, err
		}
		return bs, nil
	},
}

func StoreLookup(name, path string, batch int) (ChartStore, error) {
	factory, ok := Stores[name]
	if !ok {
		return nil, fmt.Errorf("unknown store: %s", name)
	}
	return factory(path, batch)
}
