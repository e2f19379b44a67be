package comment

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/tg-gateway/internal/apperr"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

// verdict tags the outcome of an anchor scan.
type verdict int

const (
	// exhausted: no readable post without a duplicate was found.
	exhausted verdict = iota
	// skip: a thread already carries the candidate text.
	skip
	// anchor: post is the first readable post without a duplicate.
	anchor
)

func (v verdict) String() string {
	switch v {
	case skip:
		return "skip"
	case anchor:
		return "anchor"
	default:
		return "exhausted"
	}
}

type outcome struct {
	verdict verdict
	post    telegram.Post
	// unreadable counts posts whose thread could not be read.
	unreadable int
}

// threadReader reads the discussion thread of one post.
type threadReader func(ctx context.Context, postID int) ([]telegram.Reply, error)

// fold walks posts in the given order and stops at the first duplicate or
// the first clean readable thread. Posts whose thread cannot be read are
// passed over. Only a done ctx aborts the walk.
func fold(ctx context.Context, posts []telegram.Post, candidate string, read threadReader) (outcome, error) {
	var out outcome
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return outcome{}, err
		}

		replies, err := read(ctx, post.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return outcome{}, ctxErr
			}
			out.unreadable++
			log.Debug().Err(err).Int("post_id", post.ID).Msg("discussion thread unreadable, trying next post")
			continue
		}

		if dup, found := duplicateIn(candidate, replies); found {
			log.Info().Int("post_id", post.ID).Int("reply_id", dup.ID).Msg("duplicate comment found")
			out.verdict, out.post = skip, post
			return out, nil
		}

		out.verdict, out.post = anchor, post
		return out, nil
	}
	return out, nil
}

// retryingReader wraps read so transient failures are retried up to
// retries more times. Threads reported as disabled are not retried. A
// thread that stays unreadable is reported as THREAD_UNREADABLE.
func retryingReader(retries int, read threadReader) threadReader {
	return func(ctx context.Context, postID int) ([]telegram.Reply, error) {
		var err error
		for attempt := 0; attempt <= retries; attempt++ {
			var replies []telegram.Reply
			replies, err = read(ctx, postID)
			if err == nil {
				return replies, nil
			}
			if ctx.Err() != nil {
				return nil, err
			}
			if errors.Is(err, telegram.ErrThreadDisabled) {
				break
			}
			if attempt < retries {
				log.Debug().Err(err).Int("post_id", postID).Int("attempt", attempt+1).Msg("retrying thread read")
			}
		}
		return nil, apperr.New(apperr.KindThreadUnreadable, "read thread", err)
	}
}
