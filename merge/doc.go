// Package merge declares merge and checkout policy for gitkit.
//
// The package is pure: it translates an Options value into the checkout
// strategy bitmask and callback table the engine's merge entry point
// consumes, and it provides the line-based three-way file merge that
// realizes the four file-favor outcomes. It never touches a repository
// itself.
//
// Typical use:
//
//	opts := merge.NewOptions()
//	opts.FileFavor = merge.FavorOurs
//	opts.OnNotify = func(why merge.NotifyFlags, path string) error {
//	    fmt.Println(path)
//	    return nil
//	}
//	opts.NotifyFlags = merge.NotifyConflict
//
//	result, err := eng.Merge("feature", identity, opts)
package merge
