package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrorDump flattens an error chain for structured logging. Driver fields are
// filled for whichever cart storage produced the failure.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Retryable  bool     `json:"retryable,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	MongoCode      int32    `json:"mongo_code,omitempty"`
	MongoName      string   `json:"mongo_name,omitempty"`
	MongoLabels    []string `json:"mongo_labels,omitempty"`
	MongoDuplicate bool     `json:"mongo_duplicate,omitempty"`
}

// HasDriverDetail reports whether a SQL or Mongo server error was found.
func (d ErrorDump) HasDriverDetail() bool {
	return d.PGCode != "" || d.MongoCode != 0
}

// Fields renders the dump as logger fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
		"retryable":   d.Retryable,
	}
	if d.PGCode != "" {
		fields["pg_code"] = d.PGCode
		fields["pg_detail"] = d.PGDetail
		fields["pg_message"] = d.PGMessage
		fields["pg_table"] = d.PGTable
		fields["pg_column"] = d.PGColumn
		fields["pg_constraint"] = d.PGConstraint
	}
	if d.MongoCode != 0 {
		fields["mongo_code"] = d.MongoCode
		fields["mongo_name"] = d.MongoName
		fields["mongo_labels"] = d.MongoLabels
		fields["mongo_duplicate"] = d.MongoDuplicate
	}
	return fields
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = MetadataFor(te.Code()).Retryable
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	if dumpPostgres(err, &d) {
		return d
	}
	dumpMongo(err, &d)
	return d
}

func dumpPostgres(err error, d *ErrorDump) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode, d.PGMessage, d.PGDetail = pgxErr.Code, pgxErr.Message, pgxErr.Detail
		d.PGTable, d.PGColumn, d.PGConstraint = pgxErr.TableName, pgxErr.ColumnName, pgxErr.ConstraintName
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode, d.PGMessage, d.PGDetail = string(pqErr.Code), pqErr.Message, pqErr.Detail
		d.PGTable, d.PGColumn, d.PGConstraint = pqErr.Table, pqErr.Column, pqErr.Constraint
		return true
	}
	return false
}

func dumpMongo(err error, d *ErrorDump) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		d.MongoCode, d.MongoName, d.MongoLabels = cmdErr.Code, cmdErr.Name, cmdErr.Labels
		d.MongoDuplicate = mongo.IsDuplicateKeyError(err)
		return true
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		if len(writeErr.WriteErrors) > 0 {
			d.MongoCode = int32(writeErr.WriteErrors[0].Code)
		} else if writeErr.WriteConcernError != nil {
			d.MongoCode = int32(writeErr.WriteConcernError.Code)
			d.MongoName = writeErr.WriteConcernError.Name
		}
		d.MongoLabels = writeErr.Labels
		d.MongoDuplicate = mongo.IsDuplicateKeyError(err)
		return d.MongoCode != 0
	}
	return false
}
