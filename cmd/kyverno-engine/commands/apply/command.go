package apply

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/cmd/kyverno-engine/command"
	"github.com/kyverno/admission-engine/cmd/kyverno-engine/output/color"
	"github.com/kyverno/admission-engine/ext/file"
	"github.com/kyverno/admission-engine/ext/resource/loader"
	"github.com/kyverno/admission-engine/ext/yaml"
	"github.com/kyverno/admission-engine/pkg/config"
	"github.com/kyverno/admission-engine/pkg/engine"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"github.com/kyverno/admission-engine/pkg/logging"
	"github.com/kyverno/admission-engine/pkg/policystore"
	"github.com/spf13/cobra"
)

const defaultGitBranch = "main"

type ApplyCommandConfig struct {
	ResourcePaths []string
	PolicyPaths   []string
	GitBranch     string
	ConfigFile    string
	Operation     string
	OutputFormat  string
	AuditWarn     bool
}

func Command() *cobra.Command {
	var removeColor, detailedResults, table bool
	applyCommandConfig := &ApplyCommandConfig{}
	cmd := &cobra.Command{
		Use:          "apply [policy paths...]",
		Short:        command.FormatDescription(true, description...),
		Long:         command.FormatDescription(false, description...),
		Example:      command.FormatExamples(examples...),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			color.InitColors(removeColor)
			applyCommandConfig.PolicyPaths = args
			verdicts, err := applyCommandConfig.applyCommandHelper(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case applyCommandConfig.OutputFormat == "yaml":
				if err := printVerdicts(out, verdicts...); err != nil {
					return err
				}
			case table:
				printTable(out, detailedResults, applyCommandConfig.AuditWarn, verdicts...)
			default:
				printViolations(out, applyCommandConfig.AuditWarn, verdicts...)
			}
			return exit(verdicts...)
		},
	}
	cmd.Flags().StringSliceVarP(&applyCommandConfig.ResourcePaths, "resource", "r", []string{}, "Path to resource files or folders")
	cmd.Flags().StringVarP(&applyCommandConfig.GitBranch, "git-branch", "b", "", "Branch of the git repository holding the policies (defaults to main)")
	cmd.Flags().StringVar(&applyCommandConfig.ConfigFile, "config", "", "Path to the engine configuration file")
	cmd.Flags().StringVar(&applyCommandConfig.Operation, "operation", string(kyvernov1.Create), "Admission operation the resources are evaluated for (CREATE, UPDATE, DELETE or CONNECT)")
	cmd.Flags().StringVarP(&applyCommandConfig.OutputFormat, "output", "o", "", "Prints the verdicts in the given format, only yaml is supported")
	cmd.Flags().BoolVar(&applyCommandConfig.AuditWarn, "audit-warn", false, "If set to true, will flag audit policies as warnings instead of failures")
	cmd.Flags().BoolVar(&removeColor, "remove-color", false, "Remove any color from output")
	cmd.Flags().BoolVar(&detailedResults, "detailed-results", false, "If set to true, display detailed results")
	cmd.Flags().BoolVarP(&table, "table", "t", false, "Show results in table format")
	return cmd
}

func (c *ApplyCommandConfig) applyCommandHelper(ctx context.Context) ([]engineapi.Verdict, error) {
	operation, err := c.checkArguments()
	if err != nil {
		return nil, err
	}
	configuration, err := config.LoadFile(c.ConfigFile)
	if err != nil {
		return nil, err
	}
	store := policystore.NewStore(logging.WithName("policystore"), nil)
	if err := c.loadPolicies(ctx, store); err != nil {
		return nil, err
	}
	resources, err := c.loadResources(operation)
	if err != nil {
		return nil, err
	}
	eng, err := engine.NewEngine(configuration, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine (%w)", err)
	}
	snapshot := store.Snapshot()
	verdicts := make([]engineapi.Verdict, 0, len(resources))
	for _, resource := range resources {
		verdicts = append(verdicts, eng.Evaluate(ctx, resource, snapshot))
	}
	return verdicts, nil
}

func (c *ApplyCommandConfig) checkArguments() (kyvernov1.AdmissionOperation, error) {
	if len(c.PolicyPaths) == 0 {
		return "", errors.New("require policy")
	}
	if len(c.ResourcePaths) == 0 {
		return "", errors.New("resource file(s) required")
	}
	if c.OutputFormat != "" && c.OutputFormat != "yaml" {
		return "", fmt.Errorf("output format %s is not supported, only yaml is supported", c.OutputFormat)
	}
	operation := kyvernov1.AdmissionOperation(strings.ToUpper(c.Operation))
	switch operation {
	case "":
		return kyvernov1.Create, nil
	case kyvernov1.Create, kyvernov1.Update, kyvernov1.Delete, kyvernov1.Connect:
		return operation, nil
	default:
		return "", fmt.Errorf("invalid operation %s", c.Operation)
	}
}

// loadPolicies loads every policy path as one batch, a git source cannot be mixed with local paths
func (c *ApplyCommandConfig) loadPolicies(ctx context.Context, store *policystore.Store) error {
	if len(c.PolicyPaths) == 1 && isGit(c.PolicyPaths[0]) {
		repoURL, dir, err := parseGitSource(c.PolicyPaths[0])
		if err != nil {
			return fmt.Errorf("failed to parse URL (%w)", err)
		}
		branch := c.GitBranch
		if branch == "" {
			branch = defaultGitBranch
		}
		logging.V(3).Info("cloning repository", "url", repoURL, "branch", branch)
		fs, err := policystore.Clone(ctx, repoURL, branch)
		if err != nil {
			return fmt.Errorf("failed to clone repository (%w)", err)
		}
		if err := store.LoadFS(ctx, fs, dir); err != nil {
			return fmt.Errorf("failed to load policies (%w)", err)
		}
		return nil
	}
	paths, err := absolutePaths(c.PolicyPaths)
	if err != nil {
		return fmt.Errorf("failed to load policies (%w)", err)
	}
	if err := store.LoadFS(ctx, osfs.New("/"), paths...); err != nil {
		return fmt.Errorf("failed to load policies (%w)", err)
	}
	return nil
}

func (c *ApplyCommandConfig) loadResources(operation kyvernov1.AdmissionOperation) ([]engineapi.Resource, error) {
	paths, err := absolutePaths(c.ResourcePaths)
	if err != nil {
		return nil, fmt.Errorf("failed to load resources (%w)", err)
	}
	fs := osfs.New("/")
	files, err := listFiles(fs, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load resources (%w)", err)
	}
	l := loader.New()
	var resources []engineapi.Resource
	for _, name := range files {
		data, err := util.ReadFile(fs, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s (%w)", name, err)
		}
		documents, err := yaml.SplitDocuments(data)
		if err != nil {
			return nil, fmt.Errorf("failed to split documents of %s (%w)", name, err)
		}
		for i, document := range documents {
			_, resource, err := l.Load(document)
			if err != nil {
				return nil, fmt.Errorf("failed to load resource %s[%d] (%w)", name, i, err)
			}
			resources = append(resources, engineapi.NewResource(resource.Object, operation))
		}
	}
	if len(resources) == 0 {
		return nil, errors.New("no resources found")
	}
	return resources, nil
}

// listFiles returns the YAML and JSON files found under the paths, sorted per path
func listFiles(fs billy.Filesystem, paths ...string) ([]string, error) {
	var files []string
	for _, path := range paths {
		var found []string
		err := util.Walk(fs, path, func(name string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && file.IsYamlOrJson(name) {
				found = append(found, name)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func absolutePaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

func isGit(path string) bool {
	return strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://")
}

// parseGitSource splits `https://<host>/:owner/:repository[/:directory]` into the repository URL and the directory
func parseGitSource(path string) (string, string, error) {
	gitSourceURL, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	pathElems := strings.Split(strings.Trim(gitSourceURL.Path, "/"), "/")
	if len(pathElems) < 2 || pathElems[0] == "" || pathElems[1] == "" {
		return "", "", fmt.Errorf("invalid URL path %s - expected https://<any_git_source_domain>/:owner/:repository[/:directory]", gitSourceURL.Path)
	}
	dir := "/" + strings.Join(pathElems[2:], "/")
	gitSourceURL.Path = "/" + pathElems[0] + "/" + pathElems[1]
	return gitSourceURL.String(), dir, nil
}

func exit(verdicts ...engineapi.Verdict) error {
	denied := 0
	for _, verdict := range verdicts {
		if !verdict.IsAllowed() {
			denied++
		}
	}
	if denied > 0 {
		return fmt.Errorf("exit as %d resource(s) denied", denied)
	}
	return nil
}
