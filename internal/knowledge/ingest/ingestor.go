// Package ingest turns tabular trading and company records into graph
// facts. Bad rows are skipped and counted; one bad row never aborts a load.
package ingest

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-datalog/datalog"

	"b3-stock-qa/internal/entity"
	"b3-stock-qa/internal/knowledge/graph"
	"b3-stock-qa/internal/knowledge/resolver"
	"b3-stock-qa/internal/knowledge/vocab"
	"b3-stock-qa/pkg/logger"
	"b3-stock-qa/pkg/utils"
)

// Ingestor writes canonical facts for tabular records into a base graph
// through the entity resolver.
type Ingestor struct {
	res *resolver.Resolver
	g   *graph.Graph
	log *logger.Logger
}

// New creates an Ingestor over the given graph.
func New(res *resolver.Resolver, g *graph.Graph, log *logger.Logger) *Ingestor {
	return &Ingestor{res: res, g: g, log: log}
}

// IngestCompanies loads one company-info source.
func (in *Ingestor) IngestCompanies(src CompanySource) (entity.IngestReport, error) {
	var report entity.IngestReport

	companies, err := src.Companies()
	if err != nil {
		return report, fmt.Errorf("company source %s: %w", src.Name(), err)
	}

	for _, rec := range companies {
		if err := in.guardRow(func() error { return in.companyRow(rec, &report) }); err != nil {
			report.Errors++
			in.log.Error("company row failed",
				logger.Field("source", src.Name()), logger.Field("line", rec.Line),
				logger.Field("ticker", rec.Ticker), logger.ErrorField(err))
		}
	}

	in.log.Info("company source ingested",
		logger.Field("source", src.Name()),
		logger.Field("processed", report.Processed),
		logger.Field("skipped", report.Skipped),
		logger.Field("errors", report.Errors))
	return report, nil
}

func (in *Ingestor) companyRow(rec entity.CompanyRecord, report *entity.IngestReport) error {
	if utils.IsBlank(rec.Ticker) {
		report.Skipped++
		in.log.Warn("company row skipped: empty ticker", logger.Field("line", rec.Line))
		return nil
	}

	companyID, err := in.res.ResolveSecurity(rec.Ticker)
	if err != nil {
		report.Skipped++
		in.log.Warn("company row skipped: invalid ticker",
			logger.Field("line", rec.Line), logger.Field("ticker", rec.Ticker))
		return nil
	}

	name := strings.TrimSpace(rec.Name)
	if name == "" {
		// Ticker as label fallback keeps every company addressable by name.
		name = strings.ToUpper(strings.TrimSpace(rec.Ticker))
	}

	company := vocab.Node(companyID)
	in.g.Add(company, vocab.RDFType, vocab.ClassEmpresaAberta)
	in.g.Add(company, vocab.EntityID, companyID)
	in.g.SetLabel(company, name)

	in.addCodeNode(companyID, strings.ToUpper(strings.TrimSpace(rec.Ticker)))

	if !utils.IsBlank(rec.Sector) {
		sectorID := in.res.SanitizeID(rec.Sector)
		sector := vocab.Node(sectorID)
		in.g.Add(sector, vocab.RDFType, vocab.ClassSetorAtuacao)
		in.g.Add(sector, vocab.EntityID, sectorID)
		in.g.SetLabel(sector, strings.TrimSpace(rec.Sector))
		in.g.Add(company, vocab.AtuaEm, sector)
	}

	report.Processed++
	return nil
}

// IngestTrading loads one trading (pregão) source.
func (in *Ingestor) IngestTrading(src TradingSource) (entity.IngestReport, error) {
	var report entity.IngestReport

	records, err := src.Records()
	if err != nil {
		return report, fmt.Errorf("trading source %s: %w", src.Name(), err)
	}

	for _, rec := range records {
		if err := in.guardRow(func() error { return in.tradingRow(rec, &report) }); err != nil {
			report.Errors++
			in.log.Error("trading row failed",
				logger.Field("source", src.Name()), logger.Field("line", rec.Line),
				logger.Field("ticker", rec.Ticker), logger.Field("date", rec.Date),
				logger.ErrorField(err))
		}
	}

	in.log.Info("trading source ingested",
		logger.Field("source", src.Name()),
		logger.Field("processed", report.Processed),
		logger.Field("skipped", report.Skipped),
		logger.Field("errors", report.Errors))
	return report, nil
}

func (in *Ingestor) tradingRow(rec entity.TradingRecord, report *entity.IngestReport) error {
	if utils.IsBlank(rec.Ticker) || utils.IsBlank(rec.Date) {
		report.Skipped++
		in.log.Warn("trading row skipped: empty ticker or date",
			logger.Field("line", rec.Line), logger.Field("ticker", rec.Ticker),
			logger.Field("date", rec.Date))
		return nil
	}

	companyID, err := in.res.ResolveSecurity(rec.Ticker)
	if err != nil {
		report.Skipped++
		in.log.Warn("trading row skipped: invalid ticker",
			logger.Field("line", rec.Line), logger.Field("ticker", rec.Ticker))
		return nil
	}

	date, err := in.res.ResolveDate(rec.Date)
	if err != nil {
		report.Skipped++
		in.log.Warn("trading row skipped: unparseable date",
			logger.Field("line", rec.Line), logger.Field("date", rec.Date))
		return nil
	}

	if !rec.HasNumericData() {
		report.Skipped++
		in.log.Warn("trading row skipped: no numeric data",
			logger.Field("line", rec.Line), logger.Field("ticker", rec.Ticker))
		return nil
	}

	ticker := strings.ToUpper(strings.TrimSpace(rec.Ticker))
	compact := utils.CompactDate(date)

	company := vocab.Node(companyID)
	in.g.Add(company, vocab.RDFType, vocab.ClassEmpresaAberta)
	in.g.Add(company, vocab.EntityID, companyID)

	sessionID := vocab.SessionID(compact)
	session := vocab.Node(sessionID)
	in.g.Add(session, vocab.RDFType, vocab.ClassPregao)
	in.g.Add(session, vocab.EntityID, sessionID)
	in.g.Add(session, vocab.OcorreEmData, utils.ISODate(date))

	shareClass := shareClassLocal(rec.ShareClass)
	securityID := in.res.SanitizeID(vocab.SecurityID(ticker, shareClass))
	security := vocab.Node(securityID)
	in.g.Add(security, vocab.RDFType, vocab.ClassVMNegociado)
	in.g.Add(security, vocab.EntityID, securityID)
	switch shareClass {
	case vocab.ShareClassOrdinary:
		in.g.Add(security, vocab.RDFType, vocab.ClassOrdinaria)
	case vocab.ShareClassPreferred:
		in.g.Add(security, vocab.RDFType, vocab.ClassPreferencial)
	}
	in.g.Add(company, vocab.TemValorMobiliarioNegociado, security)

	code := in.addCodeNode(companyID, ticker)
	in.g.Add(security, vocab.RepresentadoPor, code)

	tradeID := in.res.SanitizeID(vocab.TradeID(ticker, compact))
	trade := vocab.Node(tradeID)
	in.g.Add(trade, vocab.RDFType, vocab.ClassNegociadoEmPregao)
	in.g.Add(trade, vocab.EntityID, tradeID)
	in.g.Add(security, vocab.Negociado, trade)
	in.g.Add(trade, vocab.NegociadoDurante, session)

	in.addFloat(trade, vocab.PrecoAbertura, rec.Open)
	in.addFloat(trade, vocab.PrecoMaximo, rec.High)
	in.addFloat(trade, vocab.PrecoMinimo, rec.Low)
	in.addFloat(trade, vocab.PrecoMedio, rec.Average)
	in.addFloat(trade, vocab.PrecoFechamento, rec.Close)
	if rec.Trades != nil {
		in.g.Add(trade, vocab.TotalNegocios, *rec.Trades)
	}
	in.addFloat(trade, vocab.VolumeNegociacao, rec.Volume)

	report.Processed++
	return nil
}

// addCodeNode ensures the ticker-code node exists and is attached to its
// company. Trading rows for tickers the company source never declared create
// the code node on the fly.
func (in *Ingestor) addCodeNode(companyID, ticker string) datalog.Identity {
	codeID := in.res.SanitizeID(vocab.CodeID(ticker))
	node := vocab.Node(codeID)
	in.g.Add(node, vocab.RDFType, vocab.ClassCodigoNegociacao)
	in.g.Add(node, vocab.EntityID, codeID)
	in.g.Add(node, vocab.Ticker, ticker)
	in.g.Add(vocab.Node(companyID), vocab.RepresentadoPor, node)
	return node
}

func (in *Ingestor) addFloat(e datalog.Identity, a datalog.Keyword, v *float64) {
	if v != nil {
		in.g.Add(e, a, *v)
	}
}

// guardRow confines a row-level panic to that row.
func (in *Ingestor) guardRow(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("row panic: %v", r)
		}
	}()
	return fn()
}

func shareClassLocal(raw string) string {
	switch s := strings.ToUpper(strings.TrimSpace(raw)); {
	case strings.HasPrefix(s, "ON"):
		return vocab.ShareClassOrdinary
	case strings.HasPrefix(s, "PN"):
		return vocab.ShareClassPreferred
	default:
		return vocab.ShareClassUnknown
	}
}
