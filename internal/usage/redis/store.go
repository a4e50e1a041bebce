// Package redis persists usage audit records to a Redis stream and keeps
// per-account monthly totals in hashes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/forge/internal/domain"
)

const (
	// AnonymousAccount keys usage of requests without an account id.
	AnonymousAccount = "anonymous"

	fieldUnits        = "units"
	fieldCost         = "cost"
	fieldInputTokens  = "input_tokens"
	fieldOutputTokens = "output_tokens"
	fieldRequests     = "requests"
)

// Store implements domain.UsageStore.
type Store struct {
	client       *redis.Client
	auditStream  string
	keyPrefix    string
	auditMaxLen  int64
	periodMaxAge time.Duration
}

// Options configures key names and retention.
type Options struct {
	AuditStream  string
	KeyPrefix    string
	AuditMaxLen  int64
	PeriodMaxAge time.Duration
}

// NewStore creates a new usage store.
func NewStore(client *redis.Client, opts Options) *Store {
	if opts.AuditStream == "" {
		opts.AuditStream = "usage:audit"
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "usage:period:"
	}
	return &Store{
		client:       client,
		auditStream:  opts.AuditStream,
		keyPrefix:    opts.KeyPrefix,
		auditMaxLen:  opts.AuditMaxLen,
		periodMaxAge: opts.PeriodMaxAge,
	}
}

// PeriodKey returns the hash key of an account's period total.
func (s *Store) PeriodKey(accountID, period string) string {
	return s.keyPrefix + account(accountID) + ":" + period
}

// Append writes the immutable audit record to the stream.
func (s *Store) Append(ctx context.Context, record *domain.UsageRecord) error {
	if record == nil {
		return errors.New("usage record cannot be nil")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.auditStream,
		Values: map[string]interface{}{
			"request_id": record.RequestID,
			"account_id": account(record.AccountID),
			"record":     string(payload),
		},
	}
	if s.auditMaxLen > 0 {
		args.MaxLen = s.auditMaxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}
	return nil
}

// AddToPeriod atomically increments the account's total for period and
// returns the updated aggregate.
func (s *Store) AddToPeriod(ctx context.Context, period string, record *domain.UsageRecord) (*domain.PeriodTotal, error) {
	if record == nil {
		return nil, errors.New("usage record cannot be nil")
	}

	key := s.PeriodKey(record.AccountID, period)

	var (
		units, input, output, requests *redis.IntCmd
		cost                           *redis.FloatCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		units = pipe.HIncrBy(ctx, key, fieldUnits, record.BilledUnits)
		cost = pipe.HIncrByFloat(ctx, key, fieldCost, record.Cost)
		input = pipe.HIncrBy(ctx, key, fieldInputTokens, int64(record.Tokens.InputTokens))
		output = pipe.HIncrBy(ctx, key, fieldOutputTokens, int64(record.Tokens.OutputTokens))
		requests = pipe.HIncrBy(ctx, key, fieldRequests, 1)
		if s.periodMaxAge > 0 {
			pipe.Expire(ctx, key, s.periodMaxAge)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update period %s: %w", key, err)
	}

	return &domain.PeriodTotal{
		AccountID:    account(record.AccountID),
		Period:       period,
		Units:        units.Val(),
		Cost:         cost.Val(),
		InputTokens:  input.Val(),
		OutputTokens: output.Val(),
		Requests:     requests.Val(),
	}, nil
}

// PeriodTotal reads an account's total for period. Missing totals are zero.
func (s *Store) PeriodTotal(ctx context.Context, accountID, period string) (*domain.PeriodTotal, error) {
	fields, err := s.client.HGetAll(ctx, s.PeriodKey(accountID, period)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read period total: %w", err)
	}

	total := &domain.PeriodTotal{AccountID: account(accountID), Period: period}
	total.Units = parseInt(fields[fieldUnits])
	total.InputTokens = parseInt(fields[fieldInputTokens])
	total.OutputTokens = parseInt(fields[fieldOutputTokens])
	total.Requests = parseInt(fields[fieldRequests])
	if v, err := strconv.ParseFloat(fields[fieldCost], 64); err == nil {
		total.Cost = v
	}
	return total, nil
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func account(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return AnonymousAccount
	}
	return id
}
