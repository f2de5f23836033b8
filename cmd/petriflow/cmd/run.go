package cmd

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/petriflow/petriflow"
	"github.com/petriflow/petriflow/rules"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var actor string

// runCmd drives a document-approval workflow end to end: a net with a
// required-field check on submit, an expression rule on review, and a
// four-eyes rule on approve.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the document approval demo workflow",
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := newLogger()
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		defer func() { _ = logger.Sync() }()

		net := approvalNet(logger)
		if err := net.Validate(); err != nil {
			log.Fatalf("net: %v", err)
		}
		net.On(petriflow.StateChanged, func(c petriflow.Change) {
			fmt.Printf("  %s: %s -> %s\n", c.Transition, c.From, c.To)
		})

		doc := petriflow.NewToken().
			WithAttr("title", petriflow.StringAttr("Proposal")).
			WithAttr("content", petriflow.StringAttr("Lorem ipsum"))
		if err := net.AddToken(doc); err != nil {
			log.Fatalf("add token: %v", err)
		}

		ctx := context.Background()
		fmt.Println("firing submit without a reviewer:")
		if err := net.Fire(ctx, "submit", doc, petriflow.WithActor(actor)); err != nil {
			fmt.Printf("  rejected: %v\n", err)
		}

		doc.Set("reviewer_id", petriflow.StringAttr("bob"))
		steps := []struct {
			transition string
			prepare    func()
		}{
			{"submit", nil},
			{"review", func() { doc.Set("reviewer_comments", petriflow.StringAttr("looks fine")) }},
			{"approve", func() { doc.Set("approver_id", petriflow.StringAttr("alice")) }},
		}
		for _, step := range steps {
			if step.prepare != nil {
				step.prepare()
			}
			if err := net.Fire(ctx, step.transition, doc, petriflow.WithActor(actor)); err != nil {
				log.Fatalf("fire %s: %v", step.transition, err)
			}
		}

		fmt.Println("\nmarking:")
		marking := net.Marking()
		names := make([]string, 0, len(marking))
		for name := range marking {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-16s %d\n", name, marking[name])
		}

		fmt.Println("\nhistory:")
		for _, e := range doc.History() {
			fmt.Printf("  %s  %s -> %s  by %s\n", e.Transition, e.From, e.To, e.Actor)
		}
	},
}

func approvalNet(logger *zap.Logger) *petriflow.Net {
	net := petriflow.New("document-approval", petriflow.WithLogger(logger))
	for _, place := range []string{"draft", "pending_review", "reviewed", "approved", "rejected"} {
		net.AddPlace(place)
	}
	net.RegisterRule("has_comments", rules.Present("reviewer_comments"))
	net.RegisterRule("substantial_comments", rules.MinLength("reviewer_comments", 5))
	net.RegisterRule("different_approver", rules.Distinct("approver_id", "reviewer_id"))
	net.RegisterRule("titled", rules.MustExpr(`title != "" && content != ""`))

	transitions := []*petriflow.Transition{
		petriflow.NewTransition("submit", "draft", "pending_review").
			WithRequiredFields("title", "content", "reviewer_id").
			WithAllRules("titled"),
		petriflow.NewTransition("review", "pending_review", "reviewed").
			WithRequiredFields("reviewer_comments").
			WithAnyRules("has_comments", "substantial_comments"),
		petriflow.NewTransition("approve", "reviewed", "approved").
			WithRequiredFields("approver_id").
			WithAllRules("different_approver"),
		petriflow.NewTransition("reject", "reviewed", "rejected").
			WithRequiredFields("reviewer_comments"),
	}
	for _, t := range transitions {
		if err := net.AddTransition(t); err != nil {
			log.Fatalf("add transition: %v", err)
		}
	}
	return net
}

func init() {
	runCmd.Flags().StringVarP(&actor, "actor", "a", "demo", "actor recorded in token history")
	rootCmd.AddCommand(runCmd)
}
