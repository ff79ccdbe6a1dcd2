package grpcapi

import (
	"context"
	"errors"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/LavaJover/vaultx-rates-service/internal/usecase"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type RateHandler struct {
	service usecase.RateService
}

func NewRateHandler(service usecase.RateService) *RateHandler {
	return &RateHandler{
		service: service,
	}
}

func (h *RateHandler) GetRates(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	table, err := h.service.GetRates(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	fields := make(map[string]interface{}, table.Len()+1)
	for key, rate := range table.KeyedRates() {
		fields[key] = rate
	}
	fields["timestamp"] = table.Timestamp()
	return structpb.NewStruct(fields)
}

func (h *RateHandler) Convert(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	fields := r.GetFields()
	from, err := domain.ParseCurrency(fields["from"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	to, err := domain.ParseCurrency(fields["to"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	amount := 1.0
	if v, ok := fields["amount"]; ok {
		if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
			return nil, status.Error(codes.InvalidArgument, "amount must be a number")
		}
		amount = v.GetNumberValue()
	}

	conv, err := h.service.Convert(ctx, from, to, amount)
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"from":      conv.From.String(),
		"to":        conv.To.String(),
		"amount":    conv.Amount,
		"rate":      conv.Rate,
		"result":    conv.Result,
		"formatted": conv.Formatted,
		"symbol":    conv.To.Info().Symbol,
		"timestamp": conv.Timestamp,
	})
}

// SyncHealth mirrors rate availability into the gRPC health service.
func SyncHealth(hs *health.Server, service usecase.RateService) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if service.Ready() {
		st = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus(RateServiceName, st)
	hs.SetServingStatus("", st)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrUnsupportedCurrency):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrRatesUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
