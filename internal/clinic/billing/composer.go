package billing

import "github.com/google/uuid"

// MedicationPrefix marks medication lines on printed invoices.
const MedicationPrefix = "ยา: "

// ServiceSelection is one chosen clinic service with its priced quantity.
type ServiceSelection struct {
	ServiceID *uuid.UUID
	Name      string
	Quantity  int
	UnitPrice float64
}

// MedicationSelection is one chosen medication line. Its price is not carried
// on the selection; it is resolved from the catalog at composition time.
type MedicationSelection struct {
	MedicationID *uuid.UUID
	Name         string
	Quantity     int
}

// Composition is the priced output of Compose, ready to persist as an
// invoice's item set.
type Composition struct {
	Items    []InvoiceItem
	Subtotal float64
	Total    float64
}

// Empty reports whether the composition produced no billable lines.
func (c Composition) Empty() bool { return len(c.Items) == 0 }

// Compose turns selected services and medications into priced line items.
// Lines whose total is zero are dropped entirely. Medication prices are
// resolved from the supplied catalog snapshot; an unresolved medication
// prices at zero and is therefore dropped too. Subtotal and total are always
// recomputed from the emitted lines. Pure; no tax or discount logic here.
func Compose(services []ServiceSelection, medications []MedicationSelection, prices map[uuid.UUID]float64) Composition {
	var comp Composition

	for _, s := range services {
		lineTotal := float64(s.Quantity) * s.UnitPrice
		if lineTotal == 0 {
			continue
		}
		comp.Items = append(comp.Items, InvoiceItem{
			Position:    len(comp.Items),
			Description: s.Name,
			Kind:        KindService,
			Quantity:    s.Quantity,
			UnitPrice:   s.UnitPrice,
			LineTotal:   lineTotal,
		})
		comp.Subtotal += lineTotal
	}

	for _, m := range medications {
		var unitPrice float64
		if m.MedicationID != nil {
			unitPrice = prices[*m.MedicationID]
		}
		lineTotal := float64(m.Quantity) * unitPrice
		if lineTotal == 0 {
			continue
		}
		comp.Items = append(comp.Items, InvoiceItem{
			Position:    len(comp.Items),
			Description: MedicationPrefix + m.Name,
			Kind:        KindMedication,
			Quantity:    m.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
		})
		comp.Subtotal += lineTotal
	}

	comp.Total = comp.Subtotal
	return comp
}
