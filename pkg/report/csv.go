package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/flucianomsft/aks-assessment/pkg/audit"
	"github.com/flucianomsft/aks-assessment/pkg/rules"
)

// DefaultDelimiter is the field separator used when none is configured.
const DefaultDelimiter = ';'

// identity columns preceding the rule columns, in persisted order.
var leadingColumns = []string{
	"Compliant",
	"Subscription",
	"ResourceGroup",
	"ClusterName",
	"ProvisioningState",
	"Region",
	"ManagedResourceGroup",
}

// trailing columns following the rule columns.
var trailingColumns = []string{
	"CurrentNodepoolCount",
	"CurrentTotalNodeCount",
	"ErrorMessage",
}

// Header returns the full CSV header: identity columns, then one column per
// registered rule in registry order, then the count and error columns.
func Header() []string {
	names := rules.RuleNames()
	header := make([]string, 0, len(leadingColumns)+len(names)+len(trailingColumns))
	header = append(header, leadingColumns...)
	header = append(header, names...)
	header = append(header, trailingColumns...)
	return header
}

// CSVSink appends assessment records to a CSV destination. The header is
// written exactly once, before the first record. The sink is not safe for
// concurrent use; records arrive sequentially in discovery order.
type CSVSink struct {
	writer      *csv.Writer
	closer      io.Closer
	ruleNames   []string
	wroteHeader bool
}

// NewCSVSink creates a sink writing to w with the given field delimiter.
func NewCSVSink(w io.Writer, delimiter rune) *CSVSink {
	writer := csv.NewWriter(w)
	if delimiter != 0 {
		writer.Comma = delimiter
	} else {
		writer.Comma = DefaultDelimiter
	}
	return &CSVSink{
		writer:    writer,
		ruleNames: rules.RuleNames(),
	}
}

// NewFileSink creates the report file at path and returns a sink over it.
// Failure to create the file is a fatal setup error for the run.
func NewFileSink(path string, delimiter rune) (*CSVSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	sink := NewCSVSink(file, delimiter)
	sink.closer = file
	return sink, nil
}

// AppendRecord writes one record as a CSV row, emitting the header first if
// this is the first row. The row is flushed before returning so a crash later
// in the run cannot lose already-assessed clusters.
func (s *CSVSink) AppendRecord(record *audit.ClusterAssessmentRecord) error {
	if !s.wroteHeader {
		if err := s.writer.Write(Header()); err != nil {
			return fmt.Errorf("failed to write report header: %w", err)
		}
		s.wroteHeader = true
	}

	if err := s.writer.Write(s.row(record)); err != nil {
		return fmt.Errorf("failed to write report row for %s: %w", record.ClusterName, err)
	}
	s.writer.Flush()
	return s.writer.Error()
}

// row renders a record in header order. For a failed assessment every verdict
// and count cell stays empty; only the identity columns and ErrorMessage are
// populated.
func (s *CSVSink) row(record *audit.ClusterAssessmentRecord) []string {
	row := make([]string, 0, len(leadingColumns)+len(s.ruleNames)+len(trailingColumns))

	if record.Failed() {
		row = append(row, "")
	} else {
		row = append(row, record.Compliant.String())
	}
	row = append(row,
		record.Subscription,
		record.ResourceGroup,
		record.ClusterName,
		record.ProvisioningState,
		record.Region,
		record.ManagedResourceGroup,
	)

	for _, name := range s.ruleNames {
		if record.Failed() {
			row = append(row, "")
			continue
		}
		row = append(row, record.Results[name].String())
	}

	if record.Failed() {
		row = append(row, "", "")
	} else {
		row = append(row, strconv.Itoa(record.NodePoolCount), strconv.Itoa(record.TotalNodeCount))
	}
	row = append(row, record.Err)
	return row
}

// Close flushes buffered rows and closes the underlying file, if any.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	flushErr := s.writer.Error()
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			return err
		}
	}
	return flushErr
}
