package ports

// Watcher monitors the on-disk store for changes made by other processes.
// The adapter (fsnotify) must filter events down to the store file itself
// (plus its journal files) before invoking onChange.
type Watcher interface {
	// Watch starts monitoring the file at path. onChange is called with the
	// path of the changed file. The callback may be invoked from any
	// goroutine. Returns an error if the parent directory doesn't exist.
	Watch(path string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
