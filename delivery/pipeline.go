package delivery

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"ec2reporter/awsd/models"
	"ec2reporter/configuration"
	"ec2reporter/errors"
)

const (
	packageName = "delivery"

	// MaxFileSize is the largest artifact the pipeline will try to upload
	MaxFileSize = 50 * 1024 * 1024

	titleLayout     = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// remediation hints for Slack error codes the operator can fix
var hints = map[string]string{
	"channel_not_found": "check SLACK_CHANNEL_ID and invite the bot to the channel",
	"not_in_channel":    "invite the bot to the channel with /invite @<bot>",
	"invalid_auth":      "SLACK_BOT_TOKEN is invalid or revoked, reinstall the app and copy the bot token",
	"missing_scope":     "add the files:write and chat:write scopes to the bot and reinstall the app",
}

// Pipeline shares a report artifact with a Slack channel, degrading to a
// text summary when the file upload handshake fails
type Pipeline struct {
	api     SlackAPI
	channel string
	timeout time.Duration
	now     func() time.Time
}

// New creates a Pipeline from its collaborators
func New(api SlackAPI, channel string, timeout time.Duration) *Pipeline {
	return &Pipeline{
		api:     api,
		channel: channel,
		timeout: timeout,
		now:     time.Now,
	}
}

// NewPipeline creates a Pipeline talking to the Slack Web API configured in c
func NewPipeline(c *configuration.Config) *Pipeline {
	httpClient := &http.Client{Timeout: c.Timeout()}
	api := slack.New(c.SlackBotToken,
		slack.OptionHTTPClient(httpClient),
		slack.OptionAPIURL(c.SlackAPIURL),
	)
	return New(api, c.SlackChannelID, c.Timeout())
}

// Preflight checks the token and that the channel is visible to the bot
func (p *Pipeline) Preflight(ctx context.Context) error {
	logger := zap.L().With(
		zap.String("package", packageName),
		zap.String("function", "Preflight"),
	)

	authCtx, cancel := p.withTimeout(ctx)
	auth, err := p.api.AuthTestContext(authCtx)
	cancel()
	if err != nil {
		return errors.New(errors.ErrConfigInvalid, "slack authentication failed",
			map[string]interface{}{
				"hint": Hint(err),
			}, err)
	}
	logger.Info("Slack token valid",
		zap.String("operation", "slack_auth"),
		zap.String("bot_user", auth.User),
		zap.String("team", auth.Team),
	)

	infoCtx, cancel := p.withTimeout(ctx)
	channel, err := p.api.GetConversationInfoContext(infoCtx, &slack.GetConversationInfoInput{ChannelID: p.channel})
	cancel()
	if err != nil {
		return errors.New(errors.ErrConfigInvalid, "slack channel not accessible",
			map[string]interface{}{
				"channel_id": p.channel,
				"hint":       Hint(err),
			}, err)
	}
	logger.Info("Slack channel accessible",
		zap.String("operation", "slack_channel"),
		zap.String("channel_id", p.channel),
		zap.String("channel_name", channel.Name),
	)
	return nil
}

// Deliver uploads the artifact to the channel, or posts a text summary when any
// upload step fails. It never returns an error; the outcome says what happened.
func (p *Pipeline) Deliver(ctx context.Context, artifact *models.Artifact, total int) Outcome {
	logger := zap.L().With(
		zap.String("package", packageName),
		zap.String("function", "Deliver"),
	)

	size, err := checkArtifact(artifact)
	if err != nil {
		logger.Error("Report cannot be uploaded",
			zap.String("operation", "delivery_precondition"),
			zap.Error(err),
		)
		return Outcome{Stage: StagePreconditionFailed, Err: err}
	}

	generated := p.now()
	name := filepath.Base(artifact.Path)
	stage := StageNotStarted

	// step 1: reserve an upload URL
	stepCtx, cancel := p.withTimeout(ctx)
	reserved, err := p.api.GetUploadURLExternalContext(stepCtx, slack.GetUploadURLExternalParameters{
		FileName: name,
		FileSize: int(size),
	})
	cancel()
	if stage = advance(stage, err); stage == StageSummaryOnly {
		return p.summarize(ctx, artifact, total, generated, p.stepError("get_upload_url", err))
	}
	logger.Debug("Upload URL reserved",
		zap.String("operation", "delivery_url"),
		zap.String("file_id", reserved.FileID),
	)

	// step 2: send the bytes
	stepCtx, cancel = p.withTimeout(ctx)
	err = p.api.UploadToURL(stepCtx, slack.UploadToURLParameters{
		UploadURL: reserved.UploadURL,
		File:      artifact.Path,
		Filename:  name,
	})
	cancel()
	if stage = advance(stage, err); stage == StageSummaryOnly {
		return p.summarize(ctx, artifact, total, generated, p.stepError("upload", err))
	}

	// step 3: share the file in the channel
	stepCtx, cancel = p.withTimeout(ctx)
	_, err = p.api.CompleteUploadExternalContext(stepCtx, slack.CompleteUploadExternalParameters{
		Files: []slack.FileSummary{{
			ID:    reserved.FileID,
			Title: "AWS EC2 Report - " + generated.Format(titleLayout),
		}},
		Channel:        p.channel,
		InitialComment: fmt.Sprintf("AWS EC2 Instances Report\nTotal Instances: %d\nGenerated: %s", total, generated.Format(timestampLayout)),
	})
	cancel()
	if stage = advance(stage, err); stage == StageSummaryOnly {
		return p.summarize(ctx, artifact, total, generated, p.stepError("complete_upload", err))
	}

	logger.Info("Report shared to Slack",
		zap.String("operation", "delivery_complete"),
		zap.String("channel_id", p.channel),
		zap.String("file_id", reserved.FileID),
		zap.String("file", name),
	)
	return Outcome{Stage: stage, FileID: reserved.FileID}
}

// summarize posts the text-only fallback message
func (p *Pipeline) summarize(ctx context.Context, artifact *models.Artifact, total int, generated time.Time, cause error) Outcome {
	logger := zap.L().With(
		zap.String("package", packageName),
		zap.String("function", "summarize"),
	)

	text := fmt.Sprintf("AWS EC2 Instances Report\nTotal Instances: %d\nGenerated: %s\nThe report file could not be uploaded; it was saved locally as %s",
		total, generated.Format(timestampLayout), filepath.Base(artifact.Path))

	postCtx, cancel := p.withTimeout(ctx)
	_, _, err := p.api.PostMessageContext(postCtx, p.channel, slack.MsgOptionText(text, false))
	cancel()

	stage := advance(StageSummaryOnly, err)
	if err != nil {
		logger.Error("Failed to post summary message",
			zap.String("operation", "delivery_summary"),
			zap.String("hint", Hint(err)),
			zap.Error(err),
		)
		return Outcome{Stage: stage, Err: err}
	}

	logger.Info("Summary message posted",
		zap.String("operation", "delivery_summary"),
		zap.String("channel_id", p.channel),
	)
	return Outcome{Stage: stage, Err: cause}
}

func (p *Pipeline) stepError(step string, err error) error {
	wrapped := errors.New(errors.ErrDeliveryStep, "slack upload step failed",
		map[string]interface{}{
			"step": step,
		}, err)

	fields := []zap.Field{
		zap.String("package", packageName),
		zap.String("operation", "delivery_step"),
		zap.String("step", step),
		zap.Error(err),
	}
	if hint := Hint(err); hint != "" {
		fields = append(fields, zap.String("hint", hint))
	}
	zap.L().Warn("Upload step failed, falling back to summary message", fields...)
	return wrapped
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// checkArtifact returns the on-disk size of the artifact, or why it cannot be uploaded
func checkArtifact(artifact *models.Artifact) (int64, error) {
	if artifact == nil || artifact.Path == "" {
		return 0, errors.New(errors.ErrDeliveryStep, "no report artifact to deliver", nil, nil)
	}
	info, err := os.Stat(artifact.Path)
	if err != nil {
		return 0, errors.New(errors.ErrDeliveryStep, "report file not found",
			map[string]interface{}{
				"path": artifact.Path,
			}, err)
	}
	if info.Size() > MaxFileSize {
		return 0, errors.New(errors.ErrDeliveryStep, "report file exceeds the 50 MiB upload limit",
			map[string]interface{}{
				"path": artifact.Path,
				"size": info.Size(),
			}, nil)
	}
	return info.Size(), nil
}

// Hint returns a remediation hint for a Slack API error, or "" when none applies
func Hint(err error) string {
	if err == nil {
		return ""
	}
	var slackErr slack.SlackErrorResponse
	if stderrors.As(err, &slackErr) {
		return hints[slackErr.Err]
	}
	return hints[err.Error()]
}
