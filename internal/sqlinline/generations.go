package sqlinline

const QEnsureGenerationsTable = `--sql 4e0b7c2a-91d3-4f5e-8a6b-2c7d9e1f3a50
create table if not exists generations (
  id            uuid primary key,
  session_id    text not null default '',
  provider      text not null,
  title         text not null,
  prompt        text not null,
  status        text not null,
  error_message text not null default '',
  duration_ms   bigint not null default 0,
  created_at    timestamptz not null default now()
);
`

const QInsertGeneration = `--sql b3f1a6d8-27c4-4e9a-9d05-6f8e2a1c7b34
insert into generations(id, session_id, provider, title, prompt, status, error_message, duration_ms, created_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::bigint, $9::timestamptz);
`

const QListRecentGenerations = `--sql 8c2d5e7f-0a41-4b6c-b3e9-d1f4a7c2e985
select id::text, session_id, provider, title, prompt, status, error_message, duration_ms, created_at
from generations
order by created_at desc
limit $1::int;
`
