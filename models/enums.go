package models

import (
	"errors"
	"strings"
)

type PartyKind string

const (
	PartyKindClient   PartyKind = "cliente"
	PartyKindProvider PartyKind = "proveedor"
)

// Table is the table holding parties of this kind.
func (k PartyKind) Table() string {
	switch k {
	case PartyKindProvider:
		return "providers"
	default:
		return "clients"
	}
}

func (k PartyKind) IsValid() bool {
	return k == PartyKindClient || k == PartyKindProvider
}

func ParsePartyKind(s string) (PartyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cliente", "client":
		return PartyKindClient, nil
	case "proveedor", "provider":
		return PartyKindProvider, nil
	default:
		return "", errors.New("partyType must be cliente or proveedor")
	}
}

// DocumentStatus is the estado of quotations and orders.
// Any status may move to any other; there is no terminal state.
type DocumentStatus string

const (
	DocumentStatusPendiente  DocumentStatus = "pendiente"
	DocumentStatusEnProceso  DocumentStatus = "en_proceso"
	DocumentStatusCompletada DocumentStatus = "completada"
	DocumentStatusCancelada  DocumentStatus = "cancelada"
)

func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusPendiente, DocumentStatusEnProceso, DocumentStatusCompletada, DocumentStatusCancelada:
		return true
	}
	return false
}

type ConsultationStatus string

const (
	ConsultationStatusAbierta ConsultationStatus = "abierta"
	ConsultationStatusCerrada ConsultationStatus = "cerrada"
)

func (s ConsultationStatus) IsValid() bool {
	return s == ConsultationStatusAbierta || s == ConsultationStatusCerrada
}

// sequence prefixes for document codes
const (
	QuotationCodePrefix = "COT"
	OrderCodePrefix     = "PED"
)
