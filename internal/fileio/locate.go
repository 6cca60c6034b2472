package fileio

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Locate 把 --input 模式与 --input_list 清单文件展开为排序后的路径列表。
// 通配模式（* ? [ {，含 **）用 doublestar 展开；普通路径原样保留。
// 清单文件：每行一个路径，空行与 # 注释行跳过。
// failIfEmpty 为真且结果为空时报错。
func Locate(inputs, inputLists []string, failIfEmpty bool) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, in := range inputs {
		if !strings.ContainsAny(in, "*?[{") {
			add(in)
			continue
		}
		matches, err := doublestar.FilepathGlob(in)
		if err != nil {
			return nil, errors.Wrapf(err, "bad pattern %q", in)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}

	for _, list := range inputLists {
		entries, err := readList(list)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			add(e)
		}
	}

	if failIfEmpty && len(files) == 0 {
		return nil, errors.New("no input files located")
	}
	return files, nil
}

func readList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "input list %s", path)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, defaultBufSize), defaultBufSize)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
