package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List and search people you know",
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts and shared calendar owners",
	Args:  cobra.NoArgs,
	RunE:  runContactsList,
}

var contactsSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search people by name or email",
	Example: `  o365 contacts search john
  o365 contacts search john.doe@example.com
  o365 contacts search john --resolve        # print one email, fail if ambiguous`,
	Args: cobra.ExactArgs(1),
	RunE: runContactsSearch,
}

var contactsResolve bool

func init() {
	contactsSearchCmd.Flags().BoolVar(&contactsResolve, "resolve", false, "print only the email of a single match; fail when ambiguous")

	contactsCmd.AddCommand(contactsListCmd, contactsSearchCmd)
	rootCmd.AddCommand(contactsCmd)
}

func runContactsList(cmd *cobra.Command, _ []string) error {
	if contactService == nil {
		return errors.New("contact service not configured")
	}
	people, err := contactService.List(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	printPeople(w, people)
	fmt.Fprintf(w, "\nTotal: %s\n", plural(len(people), "person", "people"))
	return nil
}

func printPeople(w io.Writer, people []domain.Person) {
	t := newTable(w, column{"Name", 30}, column{"Email", 0}, column{"Source", 10})
	t.header()
	for _, p := range people {
		t.row(p.Name, p.Email, p.Source)
	}
}

func runContactsSearch(cmd *cobra.Command, args []string) error {
	if contactService == nil {
		return errors.New("contact service not configured")
	}
	w := cmd.OutOrStdout()

	if contactsResolve {
		p, err := contactService.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, p.Email)
		return nil
	}

	people, err := contactService.Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	switch len(people) {
	case 0:
		return fmt.Errorf("%w: no people match %q", domain.ErrNotFound, args[0])
	case 1:
		p := people[0]
		fmt.Fprintln(w, styles.title.Render(p.Name))
		fmt.Fprintf(w, "Email:  %s\n", p.Email)
		if p.JobTitle != "" {
			fmt.Fprintf(w, "Title:  %s\n", p.JobTitle)
		}
		if p.Company != "" {
			fmt.Fprintf(w, "Company: %s\n", p.Company)
		}
		fmt.Fprintf(w, "Source: %s\n", p.Source)
		return nil
	}
	fmt.Fprintf(w, "Found %d people matching %q:\n\n", len(people), args[0])
	printPeople(w, people)
	return nil
}
