package extract

// Handlers for formats backed by optional libraries. Each is set by an init
// function in a file excluded by its build tag; a nil handler makes the
// format fail with ErrMissingCapability.
var (
	pdfHandler  strategy
	docxHandler strategy
	xlsxHandler strategy
)
