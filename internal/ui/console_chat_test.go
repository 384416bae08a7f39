package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/trendfront/shopagent/internal/chatbot"
)

type fakeBackend struct {
	replies []string
	errs    []error
	queries []string
}

func (b *fakeBackend) Respond(_ context.Context, query string) (string, error) {
	b.queries = append(b.queries, query)
	i := len(b.queries) - 1
	if i < len(b.errs) && b.errs[i] != nil {
		return "", b.errs[i]
	}
	if i < len(b.replies) {
		return b.replies[i], nil
	}
	return "", nil
}

func (b *fakeBackend) History() []*schema.Message {
	return nil
}

func TestConsoleChatRoundtrip(t *testing.T) {
	backend := &fakeBackend{replies: []string{"您好，有什么可以帮您～"}}
	in := strings.NewReader("在吗\nexit\n")
	var out bytes.Buffer

	u := &ConsoleChatUI{In: in, Out: &out}
	if err := u.Run(context.Background(), backend, ChatOptions{}); err != nil {
		t.Fatalf("运行失败: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "欢迎来到'潮流前线'！") {
		t.Errorf("缺少欢迎语，实际输出:\n%s", got)
	}
	if !strings.Contains(got, "小潮: 您好，有什么可以帮您～") {
		t.Errorf("缺少客服回复，实际输出:\n%s", got)
	}
	if !strings.Contains(got, "感谢您的光临，期待下次再见！") {
		t.Errorf("缺少退出语，实际输出:\n%s", got)
	}
	if len(backend.queries) != 1 || backend.queries[0] != "在吗" {
		t.Errorf("后端收到的问题不符: %v", backend.queries)
	}
}

func TestConsoleChatSkipsBlankAndRecovers(t *testing.T) {
	backend := &fakeBackend{
		replies: []string{"", "好的"},
		errs:    []error{chatbot.ErrModelUnavailable, nil},
	}
	in := strings.NewReader("\n查订单\n再试一次\nquit\n")
	var out bytes.Buffer

	u := &ConsoleChatUI{In: in, Out: &out}
	if err := u.Run(context.Background(), backend, ChatOptions{}); err != nil {
		t.Fatalf("模型不可用应可恢复: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "系统开小差") {
		t.Errorf("缺少降级提示，实际输出:\n%s", got)
	}
	if !strings.Contains(got, "小潮: 好的") {
		t.Errorf("恢复后的回复缺失，实际输出:\n%s", got)
	}
	// 空行不应到达后端。
	if len(backend.queries) != 2 {
		t.Errorf("期望后端收到 2 个问题，实际 %v", backend.queries)
	}
}

func TestConsoleChatEOF(t *testing.T) {
	u := &ConsoleChatUI{In: strings.NewReader(""), Out: &bytes.Buffer{}}
	if err := u.Run(context.Background(), &fakeBackend{}, ChatOptions{}); err != nil {
		t.Fatalf("EOF 应视为正常退出: %v", err)
	}
}
