package cli

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/storage/snapshot"
)

var (
	compareShowAll    bool
	compareFilterType string
	compareOutput     string
)

var errSnapshotsDiffer = errors.New("snapshots differ")

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <snapshot1> <snapshot2>",
	Short: "Compare two ledger snapshots",
	Long: `Compare two snapshot files written by export and show differences.

Shows:
- Added entries (in snapshot2 but not snapshot1)
- Removed entries (in snapshot1 but not snapshot2)
- Modified entries with a field-by-field diff

The command fails when the snapshots differ.

Examples:
    propledgerd compare before.snap after.snap
    propledgerd compare before.snap after.snap --filter Listing
    propledgerd compare before.snap after.snap --output diff.json`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().BoolVarP(&compareShowAll, "all", "a", false, "also list unchanged entries")
	compareCmd.Flags().StringVarP(&compareFilterType, "filter", "f", "", "only show one entry type (e.g. Listing, Offer, Balance)")
	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "", "write the diff as JSON to this file")
}

func runCompare(cmd *cobra.Command, args []string) error {
	before, err := loadSnapshotFile(args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	after, err := loadSnapshotFile(args[1])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[1], err)
	}

	diff := compareStates(before, after)
	if compareFilterType != "" {
		diff = diff.filter(compareFilterType)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Snapshot 1: %s (%d entries)\n", args[0], len(before))
	fmt.Fprintf(out, "Snapshot 2: %s (%d entries)\n", args[1], len(after))
	if compareFilterType != "" {
		fmt.Fprintf(out, "Filtered by type: %s\n", compareFilterType)
	}
	diff.print(out, compareShowAll)

	if compareOutput != "" {
		data, err := json.MarshalIndent(diff, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(compareOutput, data, 0644); err != nil {
			return fmt.Errorf("write diff: %w", err)
		}
		fmt.Fprintf(out, "Diff written to: %s\n", compareOutput)
	}

	if !diff.empty() {
		return errSnapshotsDiffer
	}
	return nil
}

// stateEntry is one decoded ledger entry.
type stateEntry struct {
	Index   string                 `json:"index"`
	Type    string                 `json:"type"`
	Decoded map[string]interface{} `json:"decoded,omitempty"`

	raw []byte
}

type modifiedEntry struct {
	Index       string                 `json:"index"`
	Type        string                 `json:"type"`
	ChangedKeys []string               `json:"changed_keys"`
	Old         map[string]interface{} `json:"old"`
	New         map[string]interface{} `json:"new"`
}

type stateDiff struct {
	Added     []stateEntry    `json:"added"`
	Removed   []stateEntry    `json:"removed"`
	Modified  []modifiedEntry `json:"modified"`
	Unchanged []stateEntry    `json:"-"`
}

func (d *stateDiff) empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// loadSnapshotFile imports a snapshot into memory and decodes every entry.
func loadSnapshotFile(path string) (map[string]stateEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadSnapshot(f)
}

func loadSnapshot(r io.Reader) (map[string]stateEntry, error) {
	mem := view.NewMemory()
	if _, err := snapshot.Import(mem, r); err != nil {
		return nil, err
	}

	entries := make(map[string]stateEntry, mem.Len())
	err := mem.ForEach(nil, func(key [32]byte, data []byte) bool {
		index := strings.ToUpper(hex.EncodeToString(key[:]))
		e := stateEntry{Index: index, Type: "Unknown", raw: data}
		if t, ok := keylet.TypeOf(key); ok {
			e.Type = t.String()
			e.Decoded = decodeStateData(t, data)
		}
		entries[index] = e
		return true
	})
	return entries, err
}

func decodeStateData(t entry.Type, data []byte) map[string]interface{} {
	e, err := entry.New(t)
	if err != nil {
		return nil
	}
	if err := entry.Decode(data, e); err != nil {
		return nil
	}
	js, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(js, &decoded); err != nil {
		return nil
	}
	return decoded
}

func compareStates(before, after map[string]stateEntry) *stateDiff {
	diff := &stateDiff{}
	for key, e2 := range after {
		e1, exists := before[key]
		switch {
		case !exists:
			diff.Added = append(diff.Added, e2)
		case string(e1.raw) != string(e2.raw):
			diff.Modified = append(diff.Modified, modifiedEntry{
				Index:       e2.Index,
				Type:        e2.Type,
				ChangedKeys: findChangedKeys(e1.Decoded, e2.Decoded),
				Old:         e1.Decoded,
				New:         e2.Decoded,
			})
		default:
			diff.Unchanged = append(diff.Unchanged, e2)
		}
	}
	for key, e1 := range before {
		if _, exists := after[key]; !exists {
			diff.Removed = append(diff.Removed, e1)
		}
	}

	byIndex := func(s []stateEntry) {
		sort.Slice(s, func(i, j int) bool { return s[i].Index < s[j].Index })
	}
	byIndex(diff.Added)
	byIndex(diff.Removed)
	byIndex(diff.Unchanged)
	sort.Slice(diff.Modified, func(i, j int) bool { return diff.Modified[i].Index < diff.Modified[j].Index })
	return diff
}

func findChangedKeys(old, new map[string]interface{}) []string {
	if old == nil || new == nil {
		return nil
	}
	allKeys := make(map[string]bool)
	for k := range old {
		allKeys[k] = true
	}
	for k := range new {
		allKeys[k] = true
	}

	changed := make([]string, 0)
	for k := range allKeys {
		oldVal, oldExists := old[k]
		newVal, newExists := new[k]
		if !oldExists || !newExists || !reflect.DeepEqual(oldVal, newVal) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func (d *stateDiff) filter(entryType string) *stateDiff {
	keep := func(entries []stateEntry) []stateEntry {
		result := make([]stateEntry, 0)
		for _, e := range entries {
			if strings.EqualFold(e.Type, entryType) {
				result = append(result, e)
			}
		}
		return result
	}
	modified := make([]modifiedEntry, 0)
	for _, e := range d.Modified {
		if strings.EqualFold(e.Type, entryType) {
			modified = append(modified, e)
		}
	}
	return &stateDiff{
		Added:     keep(d.Added),
		Removed:   keep(d.Removed),
		Modified:  modified,
		Unchanged: keep(d.Unchanged),
	}
}

func (d *stateDiff) print(out io.Writer, showUnchanged bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- Summary ---")
	fmt.Fprintf(out, "Added:     %d entries\n", len(d.Added))
	fmt.Fprintf(out, "Removed:   %d entries\n", len(d.Removed))
	fmt.Fprintf(out, "Modified:  %d entries\n", len(d.Modified))
	fmt.Fprintf(out, "Unchanged: %d entries\n", len(d.Unchanged))

	for i, e := range d.Added {
		fmt.Fprintf(out, "\n[+] %d: %s %s\n", i+1, e.Type, e.Index)
		printEntryFields(out, e.Decoded)
	}
	for i, e := range d.Removed {
		fmt.Fprintf(out, "\n[-] %d: %s %s\n", i+1, e.Type, e.Index)
		printEntryFields(out, e.Decoded)
	}
	for i, e := range d.Modified {
		fmt.Fprintf(out, "\n[~] %d: %s %s\n", i+1, e.Type, e.Index)
		for _, key := range e.ChangedKeys {
			fmt.Fprintf(out, "    %s:\n", key)
			fmt.Fprintf(out, "      - %s\n", formatValue(e.Old[key]))
			fmt.Fprintf(out, "      + %s\n", formatValue(e.New[key]))
		}
	}
	if showUnchanged {
		fmt.Fprintln(out)
		for i, e := range d.Unchanged {
			fmt.Fprintf(out, "[=] %d: %s %s...\n", i+1, e.Type, e.Index[:16])
		}
	}
	fmt.Fprintln(out)
}

func printEntryFields(out io.Writer, decoded map[string]interface{}) {
	if decoded == nil {
		fmt.Fprintln(out, "    (unable to decode)")
		return
	}
	keys := make([]string, 0, len(decoded))
	for k := range decoded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "    %s: %s\n", k, formatValue(decoded[k]))
	}
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "(absent)"
	case map[string]interface{}, []interface{}:
		js, _ := json.Marshal(val)
		return string(js)
	default:
		return fmt.Sprintf("%v", val)
	}
}
