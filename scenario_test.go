package petriflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/petriflow/petriflow"
	"github.com/petriflow/petriflow/rules"
	"github.com/stretchr/testify/require"
)

func approvalNet(t *testing.T) *petriflow.Net {
	t.Helper()
	net := petriflow.New("document-approval")
	for _, place := range []string{"draft", "pending_review", "reviewed", "approved", "rejected"} {
		net.AddPlace(place)
	}
	net.RegisterRule("different_approver", rules.Distinct("approver_id", "reviewer_id"))
	net.RegisterRule("has_content", rules.MustExpr(`title != "" && content != ""`))

	for _, tr := range []*petriflow.Transition{
		petriflow.NewTransition("submit", "draft", "pending_review").
			WithRequiredFields("title", "content", "reviewer_id").
			WithAllRules("has_content"),
		petriflow.NewTransition("review", "pending_review", "reviewed").
			WithRequiredFields("reviewer_comments"),
		petriflow.NewTransition("approve", "reviewed", "approved").
			WithRequiredFields("approver_id").
			WithAllRules("different_approver"),
		petriflow.NewTransition("reject", "reviewed", "rejected").
			WithRequiredFields("reviewer_comments"),
	} {
		require.NoError(t, net.AddTransition(tr))
	}
	require.NoError(t, net.Validate())
	return net
}

func TestDocumentApproval(t *testing.T) {
	net := approvalNet(t)
	ctx := context.Background()

	doc := petriflow.NewToken().
		WithAttr("title", petriflow.StringAttr("Proposal")).
		WithAttr("content", petriflow.StringAttr("Lorem ipsum"))
	require.NoError(t, net.AddToken(doc))
	require.Equal(t, "draft", doc.State())

	// Submit without a reviewer: the missing field is named.
	err := net.Fire(ctx, "submit", doc)
	var missing *petriflow.MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Contains(t, missing.Fields, "reviewer_id")

	doc.Set("reviewer_id", petriflow.StringAttr("bob"))
	require.NoError(t, net.Fire(ctx, "submit", doc, petriflow.WithActor("bob")))
	require.Equal(t, "pending_review", doc.State())
	require.Len(t, doc.History(), 1)

	// Review without comments fails; with comments it passes.
	err = net.Fire(ctx, "review", doc)
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "pending_review", doc.State())

	doc.Set("reviewer_comments", petriflow.StringAttr("needs a budget section, otherwise fine"))
	require.NoError(t, net.Fire(ctx, "review", doc, petriflow.WithActor("bob")))
	require.Equal(t, "reviewed", doc.State())

	// The reviewer may not approve their own review.
	doc.Set("approver_id", petriflow.StringAttr("bob"))
	err = net.Fire(ctx, "approve", doc)
	var ruleFailed *petriflow.RuleFailedError
	require.ErrorAs(t, err, &ruleFailed)
	require.Contains(t, ruleFailed.Rules, "different_approver")
	require.True(t, errors.Is(err, petriflow.ErrRejected))
	require.Equal(t, "reviewed", doc.State())

	doc.Set("approver_id", petriflow.StringAttr("alice"))
	require.NoError(t, net.Fire(ctx, "approve", doc, petriflow.WithActor("alice")))
	require.Equal(t, "approved", doc.State())

	history := doc.History()
	require.Len(t, history, 3)
	require.Equal(t, "submit", history[0].Transition)
	require.Equal(t, "review", history[1].Transition)
	require.Equal(t, "approve", history[2].Transition)
	for i := 0; i < len(history)-1; i++ {
		require.Equal(t, history[i].To, history[i+1].From, "history must chain")
	}

	marking := net.Marking()
	require.Equal(t, 1, marking["approved"])
	require.Equal(t, 0, marking["draft"]+marking["pending_review"]+marking["reviewed"]+marking["rejected"])
}

func TestDocumentApproval_ActionContext(t *testing.T) {
	net := approvalNet(t)
	// A rule that reads the action context the caller stashed before firing.
	net.RegisterRule("spellcheck_clean", rules.Func(func(_ rules.Subject, ctx rules.Context) rules.Result {
		clean, ok := ctx["spellcheck_ok"].(bool)
		if !ok {
			return rules.Fail("no spellcheck result")
		}
		if !clean {
			return rules.Fail("document has spelling errors")
		}
		return rules.Pass()
	}))
	net.AddPlace("published")
	require.NoError(t, net.AddTransition(
		petriflow.NewTransition("publish", "approved", "published").WithAllRules("spellcheck_clean")))

	doc := petriflow.NewToken().WithState("approved")
	require.NoError(t, net.AddToken(doc))

	ctx := context.Background()
	err := net.Fire(ctx, "publish", doc)
	var ruleFailed *petriflow.RuleFailedError
	require.ErrorAs(t, err, &ruleFailed)

	require.NoError(t, net.Fire(ctx, "publish", doc,
		petriflow.WithActionContext(rules.Context{"spellcheck_ok": true})))
	require.Equal(t, "published", doc.State())
}
