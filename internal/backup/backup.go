// Package backup copies board snapshots to and from an S3-compatible bucket.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/position"
	"corkboard-cli/internal/store"
)

const SnapshotVersion = 1

var (
	ErrNotFound      = errors.New("backup not found")
	ErrNoBucket      = errors.New("s3 bucket is not configured")
	ErrBadSnapshot   = errors.New("unsupported backup snapshot")
	ErrMissingRegion = errors.New("s3 region is required")
)

// Config is the s3 section of the config file.
type Config struct {
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
	Prefix       string `yaml:"prefix"`
}

// ObjectAPI is the part of *s3.Client the backup uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// NewS3Client builds a client for AWS or any S3-compatible service (MinIO etc).
// Static credentials are used when both keys are set; otherwise the default
// AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.Region == "" {
		return nil, ErrMissingRegion
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Endpoint != "" {
		if _, err := url.Parse(cfg.Endpoint); err != nil {
			return nil, fmt.Errorf("invalid s3 endpoint: %w", err)
		}
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Snapshot is one board with its lists and cards, as stored in the bucket.
type Snapshot struct {
	Version    int          `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Board      model.Board  `json:"board"`
	Lists      []model.List `json:"lists"`
	Cards      []model.Card `json:"cards"`
}

func NewSnapshot(st *board.State, now time.Time) Snapshot {
	return Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: now.UTC(),
		Board:      st.Board,
		Lists:      st.SortedLists(),
		Cards:      append([]model.Card(nil), st.Cards...),
	}
}

type Bucket struct {
	api    ObjectAPI
	name   string
	prefix string
}

func NewBucket(api ObjectAPI, cfg Config) (*Bucket, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	return &Bucket{api: api, name: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Key returns the object key for boardID.
func (b *Bucket) Key(boardID string) string {
	return b.prefix + "boards/" + boardID + ".json"
}

// Check verifies the bucket exists and is reachable.
func (b *Bucket) Check(ctx context.Context) error {
	_, err := b.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.name)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
			return fmt.Errorf("bucket %s does not exist", b.name)
		}
		return fmt.Errorf("check bucket: %w", err)
	}
	return nil
}

func (b *Bucket) Push(ctx context.Context, snap Snapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	key := b.Key(snap.Board.ID)
	_, err = b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (b *Bucket) Pull(ctx context.Context, boardID string) (Snapshot, error) {
	key := b.Key(boardID)
	resp, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Snapshot{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", key, err)
	}
	if snap.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: version %d", ErrBadSnapshot, snap.Version)
	}
	return snap, nil
}

// Restore inserts snap as a new board owned by owner. Ids are reassigned and
// positions renumbered, so a snapshot with gaps or duplicates comes back dense.
func Restore(ctx context.Context, s store.Store, owner model.Identity, snap Snapshot) (*board.State, error) {
	b, err := store.InsertBoard(ctx, s, model.Board{UserID: owner.UserID, Title: snap.Board.Title})
	if err != nil {
		return nil, fmt.Errorf("restore board: %w", err)
	}
	if _, err := store.InsertMember(ctx, s, model.Member{
		BoardID: b.ID, UserID: owner.UserID, Email: owner.Email, Role: model.RoleOwner,
	}); err != nil {
		return nil, fmt.Errorf("restore owner membership: %w", err)
	}
	st := &board.State{Board: b}

	lists := append([]model.List(nil), snap.Lists...)
	position.SortLists(lists)
	lists = position.Lists(lists)
	for _, l := range lists {
		nl, err := store.InsertList(ctx, s, model.List{BoardID: b.ID, Title: l.Title, Position: l.Position})
		if err != nil {
			return st, fmt.Errorf("restore list %q: %w", l.Title, err)
		}
		st.Lists = append(st.Lists, nl)

		cards := position.Cards(position.CardsInList(snap.Cards, l.ID))
		for _, c := range cards {
			nc, err := store.InsertCard(ctx, s, model.Card{
				ListID:      nl.ID,
				Title:       c.Title,
				Description: c.Description,
				Position:    c.Position,
			})
			if err != nil {
				return st, fmt.Errorf("restore card %q: %w", c.Title, err)
			}
			st.Cards = append(st.Cards, nc)
		}
	}
	return st, nil
}
