package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

var (
	generateChapter string
	generateSubject string
	generateTopK    int
	generateJSON    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate a lesson plan for a topic",
	Long: `Retrieves the most relevant ingested content for the topic and
generates a structured lesson plan grounded in it. The plan is saved
as a new JSON artifact; prior plans are never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateChapter, "chapter", "", "restrict retrieval to one chapter")
	generateCmd.Flags().StringVar(&generateSubject, "subject", "", "restrict retrieval to one subject")
	generateCmd.Flags().IntVarP(&generateTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "output the plan as JSON")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topK := generateTopK
	if !cmd.Flags().Changed("top-k") && cfg.Retrieval.TopK > 0 {
		topK = cfg.Retrieval.TopK
	}

	query := domain.Query{
		Topic:   args[0],
		Chapter: generateChapter,
		Subject: generateSubject,
		TopK:    topK,
	}

	plan, path, err := plannerService.Generate(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("generate plan: %w", err)
	}

	if generateJSON {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal plan: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printPlan(cmd, plan)
	cmd.Println()
	cmd.Println(faintStyle.Render("Saved to " + path))
	return nil
}

func printPlan(cmd *cobra.Command, plan *domain.LessonPlan) {
	cmd.Println(titleStyle.Render(plan.Topic))
	cmd.Printf("%s | %s | %s\n\n", plan.Subject, plan.Chapter, plan.Duration)

	cmd.Println(titleStyle.Render("Objectives"))
	for _, o := range plan.Objectives {
		cmd.Printf("  - %s\n", o)
	}

	if len(plan.KeyConcepts) > 0 {
		cmd.Println()
		cmd.Println(titleStyle.Render("Key concepts"))
		for _, c := range plan.KeyConcepts {
			cmd.Printf("  - %s\n", c)
		}
	}

	cmd.Println()
	cmd.Println(titleStyle.Render("Activities"))
	for i, a := range plan.Activities {
		cmd.Printf("  %d. [%s, %s] %s\n", i+1, a.Type, a.Duration, a.Description)
	}

	if len(plan.Assessment.Formative)+len(plan.Assessment.Summative) > 0 {
		cmd.Println()
		cmd.Println(titleStyle.Render("Assessment"))
		for _, f := range plan.Assessment.Formative {
			cmd.Printf("  formative: %s\n", f)
		}
		for _, s := range plan.Assessment.Summative {
			cmd.Printf("  summative: %s\n", s)
		}
	}
}
