// Package definition loads sweep definitions from YAML, JSON or HCL files.
//
// All three formats describe the same document; YAML:
//
//	name: sfl-dra
//	program:
//	  command: python
//	  args: [sfl_with_attacker.py]
//	template: "sfl-{model_name}-{dataset}-sp{sp1}-{sp2}"
//	axes:
//	  - {name: model_name, values: [llama2]}
//	  - {name: dataset, values: [wikitext, piqa]}
//	  - {name: sp1, values: [6, 15]}
//	fixed:
//	  - {name: sp2, value: 26}
//	rules:
//	  selector: model_name
//	  cases:
//	    - {match: llama2, set: {gma_lr: 0.09, gma_epc: 18}}
//	types: {sp1: int, gma_lr: float}
//
// Axes and fixed parameters are lists so that their declaration order, which
// fixes the expansion order, survives every format. Overrides inside a rule
// are applied in key order.
package definition
