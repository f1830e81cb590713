// Package state records which spool files have been uploaded.
//
// The ledger lets a watcher restart without re-reading files it already
// shipped. Re-uploading is harmless (Lago rejects duplicate transaction IDs),
// but skipping known files saves API round trips.
//
// # Usage
//
//	repo := state.NewFileRepository("/path/to/state/dir")
//
//	s, err := repo.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	if !s.Uploaded(name, info) {
//	    // ... upload ...
//	    s.MarkUploaded(name, info, res)
//	    if err := repo.Save(ctx, s); err != nil {
//	        return err
//	    }
//	}
package state
