package store

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

const (
	profilesCollection      = "profiles"
	documentsCollection     = "documents"
	applicationsCollection  = "applications"
	notificationsCollection = "notifications"
	categoriesCollection    = "document_categories"
	typesCollection         = "document_types"
)

// decodeAll converts query snapshots into models.
func decodeAll[T any](docs []*firestore.DocumentSnapshot, what string) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.DataTo(&v); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse "+what+" data", err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// count runs a server-side COUNT aggregation.
func count(ctx context.Context, q firestore.Query, what string) (int, error) {
	res, err := q.NewAggregationQuery().WithCount("n").Get(ctx)
	if err != nil {
		return 0, errs.NewDatabaseError("read", "failed to count "+what, err)
	}
	v, ok := res["n"].(*pb.Value)
	if !ok {
		return 0, errs.NewDatabaseError("read", "unexpected count result for "+what, nil)
	}
	return int(v.GetIntegerValue()), nil
}

// txError passes domain errors raised inside a transaction through unchanged and
// wraps everything else as a database error.
func txError(err error, op, message string) error {
	if err == nil {
		return nil
	}
	var (
		notFound   *errs.NotFoundError
		exists     *errs.AlreadyExistsError
		validation *errs.ValidationError
		forbidden  *errs.ForbiddenError
	)
	if errors.As(err, &notFound) || errors.As(err, &exists) || errors.As(err, &validation) || errors.As(err, &forbidden) {
		return err
	}
	if status.Code(err) == codes.NotFound {
		return errs.NewNotFoundError(message + ": not found")
	}
	return errs.NewDatabaseError(op, message, err)
}

// bulkDelete removes every document matched by q using a BulkWriter.
func bulkDelete(ctx context.Context, client *firestore.Client, q firestore.Query, what string) (int, error) {
	log := logger.FromContext(ctx)

	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return 0, errs.NewDatabaseError("read", "failed to list "+what+" for deletion", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	bw := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, d := range docs {
		job, err := bw.Delete(d.Ref)
		if err != nil {
			bw.End()
			return 0, errs.NewDatabaseError("delete", "failed to schedule "+what+" deletion", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			log.Error("bulk delete failed", "collection", what, "doc_id", docs[i].Ref.ID, "error", err)
			return 0, errs.NewDatabaseError("delete", "failed to delete "+what, err)
		}
	}
	return len(jobs), nil
}
