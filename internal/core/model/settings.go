package model

// DefaultCapacity is the default number of events retained by an event store.
const DefaultCapacity = 500

// DefaultStorageMaxSize mirrors the usual browser local storage quota.
const DefaultStorageMaxSize = 5 * 1024 * 1024

// Settings holds user preferences persisted alongside recordings.
type Settings struct {
	EnabledTypes   map[EventKind]bool `json:"enabledTypes,omitempty"`
	ConsoleLogging bool               `json:"consoleLogging"`
	Capacity       int                `json:"capacity,omitempty"`
}

// DefaultSettings enables every event kind and console logging.
func DefaultSettings() Settings {
	enabled := make(map[EventKind]bool, len(allEventKinds))
	for _, kind := range allEventKinds {
		enabled[kind] = true
	}
	return Settings{
		EnabledTypes:   enabled,
		ConsoleLogging: true,
		Capacity:       DefaultCapacity,
	}
}

// StorageItem describes the footprint of a single persisted key.
type StorageItem struct {
	Size      int `json:"size"`
	ItemCount int `json:"itemCount"`
}

// StorageInfo reports how much of the persistence quota is in use.
type StorageInfo struct {
	TotalSize int                    `json:"totalSize"`
	Items     map[string]StorageItem `json:"items"`
	MaxSize   int                    `json:"maxSize"`
}
