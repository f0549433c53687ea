package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sol/model"
)

var newContact model.Contact

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List and manage contacts",
	RunE:  runContactsList,
}

var contactsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a contact",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runContactsAdd,
}

var contactsFindCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Find contacts by fuzzy name match",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runContactsFind,
}

func init() {
	contactsAddCmd.Flags().StringVar(&newContact.ID, "id", "", "Existing contact id to update")
	contactsAddCmd.Flags().StringVar(&newContact.Email, "email", "", "Email address")
	contactsAddCmd.Flags().StringVar(&newContact.Phone, "phone", "", "Phone number")
	contactsAddCmd.Flags().StringVar(&newContact.Company, "company", "", "Company")
	contactsAddCmd.Flags().StringVar(&newContact.Title, "title", "", "Job title")
	contactsAddCmd.Flags().StringVar(&newContact.Notes, "notes", "", "Free-form notes")

	contactsCmd.AddCommand(contactsAddCmd, contactsFindCmd)
}

func runContactsAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	c := newContact
	c.Name = strings.Join(args, " ")
	saved, err := a.db.Contacts().Upsert(cmd.Context(), c)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", saved.Name, saved.ID)
	return nil
}

func runContactsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	contacts, err := a.db.Contacts().List(cmd.Context())
	if err != nil {
		return err
	}
	return printContacts(cmd, contacts)
}

func runContactsFind(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	contacts, err := a.db.Contacts().FindByName(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printContacts(cmd, contacts)
}

func printContacts(cmd *cobra.Command, contacts []model.Contact) error {
	if len(contacts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No contacts found.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCOMPANY\tTITLE")
	for _, c := range contacts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Company, c.Title)
	}
	return w.Flush()
}
