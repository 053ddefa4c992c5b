package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"trivia-quest-service/internal/analytics"
	"trivia-quest-service/internal/config"
	redisinfra "trivia-quest-service/internal/infra/redis"
	"github.com/spf13/cobra"
)

// NewStatsCmd prints the most missed questions.
func NewStatsCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the questions answered wrong most often",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), *configPath, limit, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of questions to show")
	return cmd
}

func runStats(ctx context.Context, configPath string, limit int, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("error stats are kept in redis; redis.addr not configured")
	}
	client := newRedisClient(cfg)
	defer client.Close()

	stats, err := redisinfra.NewErrorStats(client).TopErrors(ctx, limit)
	if err != nil {
		return err
	}
	return printStats(out, stats)
}

func printStats(out io.Writer, stats []analytics.ErrorStat) error {
	if out == nil {
		out = os.Stdout
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ERRORS\tQUESTION\tTOP WRONG ANSWERS\tLAST")
	for _, s := range stats {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Count, s.QuestionText, topAnswers(s.WrongAnswers, 3), s.LastOccurred.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func topAnswers(counts map[string]int, n int) string {
	answers := make([]string, 0, len(counts))
	for a := range counts {
		answers = append(answers, a)
	}
	sort.Slice(answers, func(i, j int) bool {
		if counts[answers[i]] != counts[answers[j]] {
			return counts[answers[i]] > counts[answers[j]]
		}
		return answers[i] < answers[j]
	})
	if len(answers) > n {
		answers = answers[:n]
	}
	parts := make([]string, len(answers))
	for i, a := range answers {
		parts[i] = fmt.Sprintf("%s (%d)", a, counts[a])
	}
	return strings.Join(parts, ", ")
}
