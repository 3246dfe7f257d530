package errors

import "sort"

// docBaseURL prefixes error codes to form documentation links.
const docBaseURL = "https://idom.vango.dev/errors/"

func docURL(code string) string {
	return docBaseURL + code
}

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Sequencing Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategorySequencing,
		Message:  "attr() outside an attribute region",
		Detail:   "attr() buffers an attribute for the element being declared, so it may only be called between elementOpenStart() and elementOpenEnd().",
	},
	"E002": {
		Category: CategorySequencing,
		Message:  "Attribute region left open",
		Detail:   "The render pass ended between elementOpenStart() and elementOpenEnd(). Every elementOpenStart() needs a matching elementOpenEnd().",
	},
	"E003": {
		Category: CategorySequencing,
		Message:  "elementOpenEnd() without elementOpenStart()",
		Detail:   "elementOpenEnd() finishes the declaration started by elementOpenStart(); there was none in progress.",
	},
	"E004": {
		Category: CategorySequencing,
		Message:  "elementOpen() inside an attribute region",
		Detail:   "Children can only be declared after the parent's attributes are complete. Call elementOpenEnd() first.",
	},
	"E005": {
		Category: CategorySequencing,
		Message:  "elementOpenStart() inside an attribute region",
		Detail:   "Attribute regions do not nest. Call elementOpenEnd() for the current element first.",
	},
	"E006": {
		Category: CategorySequencing,
		Message:  "elementClose() inside an attribute region",
		Detail:   "The element being declared is not open yet. Call elementOpenEnd() before closing it.",
	},
	"E007": {
		Category: CategorySequencing,
		Message:  "text() inside an attribute region",
		Detail:   "Text is a child node and can only be declared after elementOpenEnd().",
	},
	"E008": {
		Category: CategorySequencing,
		Message:  "skip() inside an attribute region",
		Detail:   "skip() keeps the children of an open element. Call elementOpenEnd() first.",
	},
	"E009": {
		Category: CategorySequencing,
		Message:  "elementClose() without elementOpen()",
		Detail:   "Every element declared with elementOpen() or elementOpenEnd() is closed exactly once. This close has no open element to match.",
	},
	"E010": {
		Category: CategorySequencing,
		Message:  "Mismatched close tag",
		Detail:   "In debug mode elementClose() checks that the tag it is given is the tag of the element being closed.",
	},
	"E011": {
		Category: CategorySequencing,
		Message:  "Elements left open",
		Detail:   "In debug mode a render pass must close every element it opens.",
	},
	"E012": {
		Category: CategorySequencing,
		Message:  "Call outside a patch",
		Detail:   "Call-stream functions may only be used while a render callback passed to Patch is running.",
	},
	"E013": {
		Category: CategorySequencing,
		Message:  "Text nodes not supported",
		Detail:   "text() needs a live tree that can create text nodes.",
	},

	// ============================================
	// Script Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryScript,
		Message:  "Invalid render script",
		Detail:   "The render script is not valid YAML or does not match the script format.",
	},
	"E101": {
		Category: CategoryScript,
		Message:  "Unknown call kind",
		Detail:   "Each call must have exactly one of: open, openStart, attr, openEnd, close, void, text, skip, each, patch.",
	},
	"E102": {
		Category: CategoryScript,
		Message:  "Invalid expression",
		Detail:   "An expr: or if: expression could not be compiled.",
	},
	"E103": {
		Category: CategoryScript,
		Message:  "Expression evaluation failed",
		Detail:   "An expression failed while evaluating against the pass data.",
	},
	"E104": {
		Category: CategoryScript,
		Message:  "Patch target not found",
		Detail:   "A patch call names an element id that does not exist in the tree.",
	},
	"E105": {
		Category: CategoryScript,
		Message:  "each over a non-list value",
		Detail:   "The each: expression must evaluate to a list.",
	},
	"E106": {
		Category: CategoryScript,
		Message:  "Invalid initial tree",
		Detail:   "The html: document of the script could not be parsed.",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "idom.yaml could not be parsed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range.",
	},

	// ============================================
	// Protocol Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryProtocol,
		Message:  "Frame decoding failed",
		Detail:   "The frame stream is truncated or was not written by idom run --frames.",
	},
	"E141": {
		Category: CategoryProtocol,
		Message:  "Frame replay failed",
		Detail:   "A frame refers to a node that was never created. Frames must be replayed from the first one.",
	},

	// ============================================
	// CLI Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryCLI,
		Message:  "File not readable",
		Detail:   "The file does not exist or cannot be read.",
	},
	"E161": {
		Category: CategoryCLI,
		Message:  "Output not writable",
		Detail:   "The output file could not be created or written.",
	},
	"E162": {
		Category: CategoryCLI,
		Message:  "Watch failed",
		Detail:   "The file watcher could not be started.",
	},
	"E163": {
		Category: CategoryCLI,
		Message:  "Server error",
		Detail:   "The preview server stopped unexpectedly.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
