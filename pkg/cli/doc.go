/*
Package cli provides command-line helpers shared by the gfimx commands.

Output Formatting:

Results are written as aligned text, JSON or CSV. Results that implement
Table render as columns in text and as rows in CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Exit Codes:

Commands return errors; ExitCode maps them to the process exit status, and
ExitError lets a command that already printed its report choose a status.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
