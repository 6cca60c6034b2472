// Package download 汇集 llm-download 使用的数据获取插件。
package download

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// 仓库类别。
const (
	RepoTypeDataset = "dataset"
	RepoTypeModel   = "model"
)

const hubBaseURL = "https://huggingface.co"

// Huggingface 从 Hugging Face Hub 拉取数据集或模型文件。
// 未指定 --filename 时下载整个仓库（经 tree API 枚举）。
// 鉴权令牌取自环境变量 HF_TOKEN（私有仓库需要）。
type Huggingface struct {
	repoID   string
	repoType string
	files    []string
	output   string
	revision string

	client *retryablehttp.Client
	fs     *pflag.FlagSet
	sess   *session.Session
}

func NewHuggingface() contract.Downloader { return &Huggingface{} }

func (p *Huggingface) Name() string { return "huggingface" }
func (p *Huggingface) Description() string {
	return "Downloads a dataset or specific files from the Hugging Face Hub."
}

func (p *Huggingface) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.repoID, "repo_id", "i", "", "the ID of the repository to download, e.g. 'tatsu-lab/alpaca'")
		p.fs.StringVarP(&p.repoType, "repo_type", "t", RepoTypeDataset, "the type of the repository (dataset|model)")
		p.fs.StringArrayVarP(&p.files, "filename", "f", nil, "the file(s) to download rather than the whole repository")
		p.fs.StringVarP(&p.output, "output_dir", "o", ".", "the directory to store the downloaded files in")
		p.fs.StringVarP(&p.revision, "revision", "r", "main", "the revision (branch, tag or commit hash) to download")
	}
	return p.fs
}

func (p *Huggingface) Init(sess *session.Session) error {
	p.sess = sess
	if p.repoID == "" {
		return errors.Wrap(contract.ErrInvalidOption, "no --repo_id given")
	}
	if p.repoType != RepoTypeDataset && p.repoType != RepoTypeModel {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid repo_type %q", p.repoType)
	}
	p.client = retryablehttp.NewClient()
	p.client.RetryMax = 4
	// retryablehttp 自带的日志与 zerolog 不兼容，关掉。
	p.client.Logger = nil
	return nil
}

// repoPath: API 与 resolve URL 中的仓库段（数据集带 datasets/ 前缀）。
func (p *Huggingface) repoPath() string {
	if p.repoType == RepoTypeDataset {
		return "datasets/" + p.repoID
	}
	return p.repoID
}

func (p *Huggingface) Download(ctx context.Context) error {
	files := p.files
	if len(files) == 0 {
		listed, err := p.listFiles(ctx)
		if err != nil {
			return err
		}
		files = listed
	}
	if len(files) == 0 {
		return errors.Errorf("repository %s has no downloadable files", p.repoID)
	}
	if err := os.MkdirAll(p.output, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", p.output)
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.downloadFile(ctx, f); err != nil {
			return err
		}
	}
	p.sess.Logger.Info().Int("files", len(files)).Str("repo", p.repoID).Msg("download finished")
	return nil
}

// treeEntry: tree API 返回的仓库条目。
type treeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

func (p *Huggingface) listFiles(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/api/%ss/%s/tree/%s?recursive=true", hubBaseURL, p.repoType, p.repoID, p.revision)
	resp, err := p.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []treeEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse repository listing of %s", p.repoID)
	}
	var files []string
	for _, e := range entries {
		if e.Type == "file" {
			files = append(files, e.Path)
		}
	}
	return files, nil
}

func (p *Huggingface) downloadFile(ctx context.Context, name string) error {
	url := fmt.Sprintf("%s/%s/resolve/%s/%s", hubBaseURL, p.repoPath(), p.revision, name)
	p.sess.Logger.Info().Str("file", name).Msg("downloading")

	resp, err := p.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	target := filepath.Join(p.output, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", target)
	}
	out, err := os.Create(target)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", target)
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "failed to write %s", target)
	}
	p.sess.Logger.Debug().Str("file", target).Int64("bytes", n).Msg("downloaded")
	return nil
}

func (p *Huggingface) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", url)
	}
	if token := os.Getenv("HF_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to retrieve %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status %s retrieving %s", resp.Status, url)
	}
	return resp, nil
}
