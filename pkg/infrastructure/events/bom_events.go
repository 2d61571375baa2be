package events

const (
	FormulaCreatedEvent = "formula.created"
	FormulaUpdatedEvent = "formula.updated"
	FormulaCopiedEvent  = "formula.copied"
	FormulaDeletedEvent = "formula.deleted"

	ProductCreatedEvent = "product.created"
	ProductDeletedEvent = "product.deleted"

	UnitCreatedEvent = "unit.created"
	UnitDeletedEvent = "unit.deleted"
)

// AllEventTypes lists every audit event type, for handlers that follow the whole trail
var AllEventTypes = []string{
	FormulaCreatedEvent,
	FormulaUpdatedEvent,
	FormulaCopiedEvent,
	FormulaDeletedEvent,
	ProductCreatedEvent,
	ProductDeletedEvent,
	UnitCreatedEvent,
	UnitDeletedEvent,
}

type FormulaChanged struct {
	HeaderID   string `json:"header_id"`
	ProductID  string `json:"product_id"`
	Version    string `json:"version"`
	Status     string `json:"status"`
	Lines      int    `json:"lines"`
	RowVersion int64  `json:"row_version"`
}

type FormulaCopied struct {
	SourceHeaderID  string `json:"source_header_id"`
	HeaderID        string `json:"header_id"`
	TargetProductID string `json:"target_product_id"`
	Version         string `json:"version"`
}

type FormulaDeleted struct {
	HeaderID  string `json:"header_id"`
	ProductID string `json:"product_id"`
}

type ProductChanged struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
}

type UnitChanged struct {
	UnitID string `json:"unit_id"`
	Title  string `json:"title"`
}

func FormulaStream(headerID string) string  { return AggregateFormula.Stream(headerID) }
func ProductStream(productID string) string { return AggregateProduct.Stream(productID) }
func UnitStream(unitID string) string       { return AggregateUnit.Stream(unitID) }

func NewFormulaCreatedEvent(change FormulaChanged) Event {
	return NewEvent(FormulaCreatedEvent, AggregateFormula, change.HeaderID, change)
}

func NewFormulaUpdatedEvent(change FormulaChanged) Event {
	return NewEvent(FormulaUpdatedEvent, AggregateFormula, change.HeaderID, change)
}

func NewFormulaCopiedEvent(copied FormulaCopied) Event {
	return NewEvent(FormulaCopiedEvent, AggregateFormula, copied.HeaderID, copied)
}

func NewFormulaDeletedEvent(deleted FormulaDeleted) Event {
	return NewEvent(FormulaDeletedEvent, AggregateFormula, deleted.HeaderID, deleted)
}

func NewProductCreatedEvent(change ProductChanged) Event {
	return NewEvent(ProductCreatedEvent, AggregateProduct, change.ProductID, change)
}

func NewProductDeletedEvent(change ProductChanged) Event {
	return NewEvent(ProductDeletedEvent, AggregateProduct, change.ProductID, change)
}

func NewUnitCreatedEvent(change UnitChanged) Event {
	return NewEvent(UnitCreatedEvent, AggregateUnit, change.UnitID, change)
}

func NewUnitDeletedEvent(change UnitChanged) Event {
	return NewEvent(UnitDeletedEvent, AggregateUnit, change.UnitID, change)
}
