package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	sessionJSON     bool
	pinAttachments  attachmentFlags
	sessionNewTitle string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage chat sessions and pinned context",
	Long: `A chat session holds context items pinned by the user. In session mode
every pinned item joins each message's context bundle.`,
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a chat session",
	Args:  cobra.NoArgs,
	RunE:  runSessionNew,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionPinCmd = &cobra.Command{
	Use:   "pin [session-id]",
	Short: "Pin explicit context to a session",
	Long: `Pins documents, page ranges or selections to a session. Pinning an
item that is already pinned is a no-op.

Examples:
  pdfchat session pin 3a9e... --pages 1f0c...:7-8
  pdfchat session pin 3a9e... --document 1f0c...`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionPin,
}

var sessionUnpinCmd = &cobra.Command{
	Use:   "unpin [session-id] [item-id...]",
	Short: "Remove pinned items from a session",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSessionUnpin,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Remove every pinned item from a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionClear,
}

var sessionItemsCmd = &cobra.Command{
	Use:   "items [session-id]",
	Short: "List a session's pinned items",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionItems,
}

func init() {
	sessionNewCmd.Flags().StringVarP(&sessionNewTitle, "title", "t", "", "session title")
	sessionListCmd.Flags().BoolVar(&sessionJSON, "json", false, "output as JSON")
	sessionItemsCmd.Flags().BoolVar(&sessionJSON, "json", false, "output as JSON")
	pinAttachments.register(sessionPinCmd)

	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionPinCmd)
	sessionCmd.AddCommand(sessionUnpinCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionItemsCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionNew(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errNotConfigured("session service")
	}

	session, err := sessionService.CreateSession(commandContext(cmd), sessionNewTitle)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	cmd.Printf("Created session %s (%s)\n", session.ID, session.Title)
	return nil
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errNotConfigured("session service")
	}

	sessions, err := sessionService.ListSessions(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessionJSON {
		return printJSON(cmd, sessions)
	}
	if len(sessions) == 0 {
		cmd.Println("No sessions.")
		return nil
	}
	for i := range sessions {
		cmd.Printf("%s  %s  %s\n", sessions[i].ID,
			sessions[i].UpdatedAt.Format("2006-01-02 15:04"), sessions[i].Title)
	}
	return nil
}

func runSessionPin(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errNotConfigured("session service")
	}
	if pinAttachments.empty() {
		return fmt.Errorf("nothing to pin: use --document, --pages or --selection")
	}
	ctx := commandContext(cmd)

	items, err := pinAttachments.resolve(ctx)
	if err != nil {
		return err
	}
	for _, ec := range items {
		added, err := sessionService.AddItem(ctx, args[0], ec)
		if err != nil {
			return fmt.Errorf("failed to pin %s: %w", ec.ID, err)
		}
		if added {
			cmd.Printf("Pinned %s  %s\n", ec.ID, describeSource(ec))
		} else {
			cmd.Printf("Already pinned %s\n", ec.ID)
		}
	}
	return nil
}

func runSessionUnpin(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errNotConfigured("session service")
	}
	ctx := commandContext(cmd)

	for _, itemID := range args[1:] {
		if err := sessionService.RemoveItem(ctx, args[0], itemID); err != nil {
			return fmt.Errorf("failed to unpin %s: %w", itemID, err)
		}
		cmd.Printf("Unpinned %s\n", itemID)
	}
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errNotConfigured("session service")
	}

	if err := sessionService.ClearAll(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	cmd.Printf("Cleared session %s\n", args[0])
	return nil
}

func runSessionItems(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errNotConfigured("session service")
	}

	items, err := sessionService.Items(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	if sessionJSON {
		return printJSON(cmd, items)
	}
	if len(items) == 0 {
		cmd.Println("No pinned items.")
		return nil
	}
	for i := range items {
		cmd.Printf("%s  %s  %d tokens\n", items[i].ID, describeSource(items[i].Context), items[i].Context.TokenCount)
	}
	return nil
}
