/*
Package space declares sweep parameter spaces and expands them into run
configurations.

A Space holds ordered axes (a parameter with several candidate values) and
fixed parameters (one value shared by every run). Expand walks the Cartesian
product lazily, reproducing the iteration order of nested loops written in
declaration order:

	s := space.New()
	_ = s.DefineAxis("seed", domain.Int(42), domain.Int(7))
	_ = s.DefineAxis("dataset", domain.String("wikitext"), domain.String("piqa"))
	_ = s.DefineFixed("sp2", domain.Int(999))

	for i, cfg := range space.Expand(s) {
		fmt.Println(i, cfg)
	}
	// 0 {seed=42, dataset="wikitext", sp2=999}
	// 1 {seed=42, dataset="piqa", sp2=999}
	// 2 {seed=7, dataset="wikitext", sp2=999}
	// 3 {seed=7, dataset="piqa", sp2=999}
*/
package space
