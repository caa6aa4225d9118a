// Package validation checks flat string maps against pipe-separated rules.
//
// It validates container definition files and web action input:
//
//	v := validation.Make(map[string]string{
//	    "id":   "mailer",
//	    "kind": "autowire",
//	}, validation.Rules{
//	    "id":   "required|identifier",
//	    "kind": "required|in:instance,autowire,config",
//	})
//
//	if err := v.Validate(); err != nil {
//	    // err is *Errors: Bag map[string][]string
//	}
//
// # Available Rules
//
// Presence:
//   - required            field must be present and non-blank
//   - required_with:other required when other is non-empty
//   - prohibited          field must be empty
//   - nullable            an empty value skips the remaining rules
//   - sometimes           an absent field skips the remaining rules
//
// Format:
//   - string, numeric, integer, boolean
//   - min:n, max:n        length in UTF-8 characters
//   - in:a,b,c / not_in:a,b,c
//   - alpha_dash          letters, numbers, dashes, underscores
//   - identifier          a container id or type key (letters, digits, _ . / : * -)
//   - regex:pattern
//
// Rules run in order and stop at the first failure of a field.
//
// # Error Bag
//
//	{
//	  "errors": {
//	    "kind": ["The selected kind is invalid."]
//	  }
//	}
package validation
