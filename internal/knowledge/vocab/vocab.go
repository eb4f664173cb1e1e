// Package vocab defines the attribute and class vocabulary of the stock
// knowledge graph, plus the canonical node-identifier builders. Identifiers
// are pure functions of their normalized inputs so that re-ingesting the same
// logical row always addresses the same nodes.
package vocab

import (
	"github.com/wbrown/janus-datalog/datalog"
)

// Attribute keywords. Predicate names mirror the source ontology; they are
// part of the template contract, not of the engine.
var (
	RDFType   = datalog.NewKeyword(":rdf/type")
	RDFSLabel = datalog.NewKeyword(":rdfs/label")

	// EntityID carries the canonical identifier string of every node, so
	// query templates can address nodes by identifier.
	EntityID = datalog.NewKeyword(":entity/id")

	Ticker                      = datalog.NewKeyword(":stock/ticker")
	RepresentadoPor             = datalog.NewKeyword(":stock/representadoPor")
	TemValorMobiliarioNegociado = datalog.NewKeyword(":stock/temValorMobiliarioNegociado")
	Negociado                   = datalog.NewKeyword(":stock/negociado")
	NegociadoDurante            = datalog.NewKeyword(":stock/negociadoDurante")
	OcorreEmData                = datalog.NewKeyword(":stock/ocorreEmData")
	PrecoAbertura               = datalog.NewKeyword(":stock/precoAbertura")
	PrecoMaximo                 = datalog.NewKeyword(":stock/precoMaximo")
	PrecoMinimo                 = datalog.NewKeyword(":stock/precoMinimo")
	PrecoMedio                  = datalog.NewKeyword(":stock/precoMedio")
	PrecoFechamento             = datalog.NewKeyword(":stock/precoFechamento")
	TotalNegocios               = datalog.NewKeyword(":stock/totalNegocios")
	VolumeNegociacao            = datalog.NewKeyword(":stock/volumeNegociacao")
	AtuaEm                      = datalog.NewKeyword(":stock/atuaEm")
)

// Class keywords, used as values of :rdf/type.
var (
	ClassEmpresa           = datalog.NewKeyword(":stock/Empresa")
	ClassEmpresaAberta     = datalog.NewKeyword(":stock/Empresa_Capital_Aberto")
	ClassValorMobiliario   = datalog.NewKeyword(":stock/Valor_Mobiliario")
	ClassVMNegociado       = datalog.NewKeyword(":stock/Valor_Mobiliario_Negociado")
	ClassNegociadoEmPregao = datalog.NewKeyword(":stock/Negociado_Em_Pregao")
	ClassPregao            = datalog.NewKeyword(":stock/Pregao")
	ClassCodigoNegociacao  = datalog.NewKeyword(":stock/Codigo_Negociacao")
	ClassOrdinaria         = datalog.NewKeyword(":stock/Ordinaria")
	ClassPreferencial      = datalog.NewKeyword(":stock/Preferencial")
	ClassSetorAtuacao      = datalog.NewKeyword(":stock/Setor_Atuacao")
)

// Namespace is the keyword namespace for stock classes and predicates.
const Namespace = "stock"

// ClassKeyword builds a class keyword from a sanitized local name.
func ClassKeyword(local string) datalog.Keyword {
	return datalog.NewKeyword(":" + Namespace + "/" + local)
}

// Share-class local names derived from the raw marker column.
const (
	ShareClassOrdinary  = "Ordinaria"
	ShareClassPreferred = "Preferencial"
	ShareClassUnknown   = "TipoDesconhecido"
)

// Node builds the graph identity for a canonical identifier string.
func Node(canonicalID string) datalog.Identity {
	return datalog.NewIdentity(canonicalID)
}

// CodeID returns the canonical identifier of a ticker-code node.
func CodeID(ticker string) string { return ticker + "_Code" }

// SecurityID returns the canonical identifier of a tradable security for
// a ticker and share-class local name.
func SecurityID(ticker, shareClass string) string { return ticker + "_" + shareClass }

// SessionID returns the canonical identifier of a trading session, with the
// date in compact numeric form (YYYYMMDD).
func SessionID(compactDate string) string { return "Pregao_" + compactDate }

// TradeID returns the canonical identifier of a trade fact, a composite of
// ticker and session date.
func TradeID(ticker, compactDate string) string { return ticker + "_" + compactDate + "_Negociado" }
