package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("assistant is not configured")

// maxToolRounds bounds how many tool calls one question may chain.
const maxToolRounds = 5

// Agent answers bookkeeping questions for one tenant at a time, calling
// tools over that tenant's data.
type Agent struct {
	apiKey string
	model  string
	db     *gorm.DB
	log    zerolog.Logger
}

func NewAgent(apiKey, model string, db *gorm.DB, log zerolog.Logger) *Agent {
	return &Agent{apiKey: apiKey, model: model, db: db, log: log}
}

// Enabled reports whether an API key is set.
func (a *Agent) Enabled() bool {
	return a != nil && a.apiKey != ""
}

// Ask runs one question through the model, feeding tool results back until
// the model answers in text.
func (a *Agent) Ask(ctx context.Context, tenantID, userID, currency, message string) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}

	today := time.Now().UTC().Format(time.DateOnly)
	model.SystemInstruction = genai.NewUserContent(genai.Text(fmt.Sprintf(`Today is %s. You are the bookkeeping assistant of a small business. Amounts are in %s with three decimals.

RULES:
1. If a user asks about an item by NAME, call 'check_inventory' first and find it there. Never ask the user for an id or SKU you can look up.
2. To change a selling price, find the SKU with 'check_inventory', then call 'update_selling_price'.
3. For revenue, collections, credit or expenses in a period use 'get_sales_report'.
4. For overall profit, low stock or recent activity use 'get_dashboard'.
5. For unpaid supplier bills use 'list_pending_invoices'.`, today, currency)))

	tools := &Tools{DB: a.db, TenantID: tenantID, UserID: userID}
	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		call, ok := firstCall(resp)
		if !ok {
			return printResponse(resp), nil
		}

		result, err := tools.Call(ctx, call.Name, call.Args)
		if err != nil {
			a.log.Warn().Err(err).Str("tool", call.Name).Str("tenant_id", tenantID).Msg("assistant tool failed")
			result = map[string]interface{}{"error": err.Error()}
		}

		resp, err = session.SendMessage(ctx, genai.FunctionResponse{Name: call.Name, Response: result})
		if err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

func firstCall(resp *genai.GenerateContentResponse) (genai.FunctionCall, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return genai.FunctionCall{}, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			return fc, true
		}
	}
	return genai.FunctionCall{}, false
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				return string(txt)
			}
		}
	}
	return "I completed the action."
}
