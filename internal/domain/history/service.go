// internal/domain/history/service.go
package history

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/wawashop/storefront/internal/domain/cart"
)

var emptyList = json.RawMessage("[]")

// Service reads a customer's backend order and document history
type Service struct {
	gateway Gateway
	logger  logrus.FieldLogger
}

// NewService creates a new history service
func NewService(gateway Gateway, logger logrus.FieldLogger) *Service {
	return &Service{
		gateway: gateway,
		logger:  logger,
	}
}

// List returns the customer's orders or documents. A backend answer of
// success=false reads as an empty history.
func (s *Service) List(ctx context.Context, kind Kind, q Query) (json.RawMessage, error) {
	if q.CustomerCode == "" {
		return nil, cart.ErrUserDataMissing
	}

	var (
		result *Result
		err    error
	)
	switch kind {
	case KindOrder:
		result, err = s.gateway.OrderHistory(ctx, q.CustomerCode, q.Filter)
	case KindDocument:
		result, err = s.gateway.DocumentList(ctx, q.CustomerCode, q.Filter)
	default:
		return nil, &cart.ValidationError{Field: "kind", Message: "unknown history kind"}
	}
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"cust_code": q.CustomerCode,
		"kind":      kind,
		"filter":    q.Filter,
	})
	if !result.Success {
		log.WithField("message", result.Message).Debug("Backend returned no history")
		return emptyList, nil
	}
	if result.Empty() {
		return emptyList, nil
	}
	return result.Data, nil
}

// Get returns one order or document by its document number
func (s *Service) Get(ctx context.Context, kind Kind, custCode, docNo string) (json.RawMessage, error) {
	if custCode == "" {
		return nil, cart.ErrUserDataMissing
	}
	docNo = strings.TrimSpace(docNo)
	if docNo == "" {
		return nil, &cart.ValidationError{Field: "doc_no", Message: "document number is required"}
	}

	var (
		result *Result
		err    error
	)
	switch kind {
	case KindOrder:
		result, err = s.gateway.OrderDetail(ctx, custCode, docNo)
	case KindDocument:
		result, err = s.gateway.DocumentDetail(ctx, custCode, docNo)
	default:
		return nil, &cart.ValidationError{Field: "kind", Message: "unknown history kind"}
	}
	if err != nil {
		return nil, err
	}

	if !result.Success || result.Empty() {
		s.logger.WithFields(logrus.Fields{
			"cust_code": custCode,
			"kind":      kind,
			"doc_no":    docNo,
		}).Debug("History record not found at backend")
		return nil, ErrRecordNotFound
	}
	return result.Data, nil
}
