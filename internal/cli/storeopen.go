package cli

import (
	"path/filepath"

	"github.com/marketloom/marketloom/internal/bus"
)

// openStore opens the topic store named by the --store flag. Paths ending
// in .db or .sqlite get the SQLite backend; anything else is treated as a
// directory of NDJSON topic logs. The returned closer is never nil.
func openStore(path string) (bus.Store, func() error, error) {
	switch filepath.Ext(path) {
	case ".db", ".sqlite":
		sb, err := bus.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return sb, sb.Close, nil
	default:
		fb, err := bus.NewFileBus(path)
		if err != nil {
			return nil, nil, err
		}
		return fb, fb.Close, nil
	}
}
